// Package forge renders file templates against a resolved registry schema,
// per spec.md §4.6. Grounded on jamesonstone-kit/internal/templates for the
// general shape of "named templates rendered against a typed context", but
// generalized from that package's fixed Go string templates into
// config-driven discovery/matching, a real filter library, and a Markdown
// renderer — none of which the pack's template packages implement.
package forge

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the well-known template-engine config at a target
// template directory's root, per spec.md §4.6.
const ConfigFileName = "weaver.yaml"

// LoadConfig reads and parses templateDir's weaver.yaml. A missing file is
// not an error: it yields the zero Config (no matchers, default delimiters).
func LoadConfig(templateDir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(templateDir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// CommentFormat configures how the markdown filter renders prose into a
// target comment syntax, per spec.md §4.6's comment_formats option list.
type CommentFormat struct {
	Format                  string `yaml:"format"` // "html" | "markdown"
	EscapeBackslashes       bool   `yaml:"escape_backslashes,omitempty"`
	EscapeSquareBrackets    bool   `yaml:"escape_square_brackets,omitempty"`
	IndentFirstLevelListItems bool `yaml:"indent_first_level_list_items,omitempty"`
	ShortcutReferenceLink   bool   `yaml:"shortcut_reference_link,omitempty"`
	DefaultBlockCodeLanguage string `yaml:"default_block_code_language,omitempty"`
	Trim                    bool   `yaml:"trim,omitempty"`
	RemoveTrailingDots      bool   `yaml:"remove_trailing_dots,omitempty"`
	Prefix                  string `yaml:"prefix,omitempty"`
	Header                  string `yaml:"header,omitempty"`
	Footer                  string `yaml:"footer,omitempty"`
}

// TemplateSyntax overrides the delimiters used when parsing `.j2` template
// bodies, per spec.md §4.6's template_syntax option.
type TemplateSyntax struct {
	Left  string `yaml:"left,omitempty"`
	Right string `yaml:"right,omitempty"`
}

// ApplicationMode selects how many times a matched template renders.
type ApplicationMode string

const (
	// ApplySingle renders once with the filtered context as the whole input.
	ApplySingle ApplicationMode = "single"
	// ApplyEach renders once per element of a filtered array context; the
	// elements of one template render one after another, not in parallel.
	ApplyEach ApplicationMode = "each"
)

// TemplateMatcher binds a file-name pattern to a context filter and
// application mode, per spec.md §4.6's "each file has an associated matcher"
// paragraph.
type TemplateMatcher struct {
	Pattern         string          `yaml:"pattern"`
	Filter          string          `yaml:"filter,omitempty"` // JQ-style expression
	ApplicationMode ApplicationMode `yaml:"application_mode,omitempty"`
}

// Config is the weaver.yaml-equivalent template configuration read from the
// target directory's root, per spec.md §4.6.
type Config struct {
	TemplateSyntax        TemplateSyntax           `yaml:"template_syntax,omitempty"`
	CommentFormats        map[string]CommentFormat `yaml:"comment_formats,omitempty"`
	DefaultCommentFormat  string                   `yaml:"default_comment_format,omitempty"`
	Params                map[string]any           `yaml:"params,omitempty"`
	Templates             []TemplateMatcher        `yaml:"templates,omitempty"`

	// CaseConvention maps a per-name category (file_name, function_name,
	// arg_name, struct_name, field_name) to a case style (snake, camel,
	// pascal, kebab), per spec.md §4.6's filter-library paragraph.
	CaseConvention map[string]string `yaml:"case_convention,omitempty"`
}

func (c Config) matcherFor(relPath string) *TemplateMatcher {
	for i := range c.Templates {
		if matchGlob(c.Templates[i].Pattern, relPath) {
			return &c.Templates[i]
		}
	}
	return nil
}

func (c Config) commentFormat(name string) (CommentFormat, bool) {
	if name == "" {
		name = c.DefaultCommentFormat
	}
	cf, ok := c.CommentFormats[name]
	return cf, ok
}
