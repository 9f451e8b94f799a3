package forge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/werror"
)

// outputNamer is the "template" object spec.md §4.6 describes: templates
// call set_file_name to pick their own output path; if they never do, the
// template's relative path (minus ".j2") is used verbatim.
type outputNamer struct {
	name string
}

func (o *outputNamer) setFileName(name string) string {
	o.name = name
	return ""
}

// Engine renders the templates in a target directory against a resolved
// registry, per spec.md §4.6.
type Engine struct {
	cfg Config
}

// NewEngine builds a rendering Engine from a parsed weaver.yaml-equivalent
// Config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Render walks templateDir for "*.j2" files, matches each against the
// configured TemplateMatchers, filters ctx per matcher, and writes rendered
// output under outDir. Independent files render in parallel via errgroup;
// render errors are accumulated and a non-empty accumulation aborts the run
// only after every file has attempted to render, per spec.md §4.6's
// parallelism paragraph.
func (e *Engine) Render(ctx context.Context, templateDir, outDir string, schema *registry.ResolvedRegistry) werror.Result[int] {
	candidates, walkErr := discoverTemplates(templateDir)
	if walkErr != nil {
		return werror.FatalErr[int](werror.New(werror.KindRendering, templateDir, walkErr))
	}

	g, gctx := errgroup.WithContext(ctx)
	nonFatal := &werror.Compound{}
	var rendered int
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	for _, relPath := range candidates {
		relPath := relPath
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			n, err := e.renderOne(templateDir, outDir, relPath, schema)
			<-mu
			if err != nil {
				nonFatal.Add(werror.New(werror.KindRendering, relPath, err))
			} else {
				rendered += n
			}
			mu <- struct{}{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return werror.FatalErr[int](werror.New(werror.KindRendering, templateDir, err))
	}

	if nonFatal.Len() > 0 {
		return werror.FatalErr[int](werror.New(werror.KindRendering, templateDir, nonFatal.Err()))
	}
	return werror.Ok(rendered)
}

func discoverTemplates(templateDir string) ([]string, error) {
	var out []string
	err := filepath.Walk(templateDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".j2") {
			return nil
		}
		rel, err := filepath.Rel(templateDir, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

func (e *Engine) renderOne(templateDir, outDir, relPath string, schema *registry.ResolvedRegistry) (int, error) {
	matcher := e.cfg.matcherFor(relPath)

	var filterExpr string
	mode := ApplySingle
	if matcher != nil {
		filterExpr = matcher.Filter
		if matcher.ApplicationMode != "" {
			mode = matcher.ApplicationMode
		}
	}

	filtered, err := applyJQFilter(filterExpr, schema)
	if err != nil {
		return 0, fmt.Errorf("filtering context: %w", err)
	}

	srcPath := filepath.Join(templateDir, relPath)
	srcBytes, err := os.ReadFile(srcPath)
	if err != nil {
		return 0, fmt.Errorf("reading template: %w", err)
	}

	outRel := strings.TrimSuffix(relPath, ".j2")

	elements := []any{filtered}
	if mode == ApplyEach {
		arr, ok := filtered.([]any)
		if !ok {
			return 0, fmt.Errorf("application_mode each requires an array context, got %T", filtered)
		}
		elements = arr
	}

	count := 0
	for _, elem := range elements {
		namer := &outputNamer{}
		out, err := e.execute(string(srcBytes), elem, namer)
		if err != nil {
			return count, fmt.Errorf("rendering %s: %w", relPath, err)
		}
		finalRel := outRel
		if namer.name != "" {
			finalRel = namer.name
		}
		destPath := filepath.Join(outDir, finalRel)
		if err := writeAtomic(destPath, out); err != nil {
			return count, fmt.Errorf("writing %s: %w", destPath, err)
		}
		count++
	}
	return count, nil
}

func (e *Engine) execute(src string, ctx any, namer *outputNamer) (string, error) {
	funcs := template.FuncMap{
		"snake_case":  snakeCase,
		"camel_case":  camelCase,
		"pascal_case": pascalCase,
		"kebab_case":  kebabCase,
		"case": func(category, s string) string {
			style := e.cfg.CaseConvention[category]
			return caseConvert(style, s)
		},
		"flatten":  flatten,
		"split_id": splitID,
		"fg":       func(name, s string) string { return style(name)(s) },
		"bg":       func(name, s string) string { return style("bg_" + name)(s) },
		"bold":     style("bold"),
		"italic":   style("italic"),
		"underline": style("underline"),
		"strike":   style("strikethrough"),
		"markdown": func(body string) string {
			cf, _ := e.cfg.commentFormat("")
			return renderMarkdown(body, cf)
		},
		"markdown_as": func(format, body string) string {
			cf, _ := e.cfg.commentFormat(format)
			return renderMarkdown(body, cf)
		},
		"jq": func(expr string, v any) (any, error) { return applyJQFilter(expr, v) },
		"set_file_name": func(name string) string { return namer.setFileName(name) },
		"param": func(key string) any { return e.cfg.Params[key] },
	}

	left, right := "{{", "}}"
	if e.cfg.TemplateSyntax.Left != "" {
		left = e.cfg.TemplateSyntax.Left
	}
	if e.cfg.TemplateSyntax.Right != "" {
		right = e.cfg.TemplateSyntax.Right
	}

	tmpl, err := template.New("tpl").Delims(left, right).Funcs(funcs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func writeAtomic(destPath string, content string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	tmp := destPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, destPath)
}
