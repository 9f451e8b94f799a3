package forge

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// renderMarkdown parses src and re-emits it under cf's comment-format rules,
// per spec.md §4.6's Markdown renderer semantics: "parse to AST, emit
// customized markdown honoring the comment-format options, collecting
// shortcut reference links to emit as a footer block." No example repo in
// the pack uses goldmark; this walks its AST directly since no comment-
// format renderer ships with the library itself.
func renderMarkdown(src string, cf CommentFormat) string {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	reader := text.NewReader([]byte(src))
	doc := md.Parser().Parse(reader)

	w := &mdWalker{src: []byte(src), cf: cf}
	ast.Walk(doc, w.visit)

	out := w.out.String()
	if cf.RemoveTrailingDots {
		out = strings.TrimRight(out, ". \n") + "\n"
	}
	if cf.Trim {
		out = strings.TrimSpace(out) + "\n"
	}
	if len(w.refLinks) > 0 {
		var footer strings.Builder
		footer.WriteString("\n")
		for _, l := range w.refLinks {
			footer.WriteString(fmt.Sprintf("[%s]: %s\n", l.label, l.dest))
		}
		out += footer.String()
	}
	if cf.Header != "" {
		out = cf.Header + "\n" + out
	}
	if cf.Footer != "" {
		out += cf.Footer + "\n"
	}
	if cf.Prefix != "" {
		var b strings.Builder
		for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
			b.WriteString(cf.Prefix)
			b.WriteString(line)
			b.WriteString("\n")
		}
		out = b.String()
	}
	return out
}

type refLink struct{ label, dest string }

type mdWalker struct {
	src      []byte
	cf       CommentFormat
	out      strings.Builder
	refLinks []refLink
	listDepth int
}

// visit is a pared-down ast.Walker: it handles the node kinds spec.md §4.6
// names explicitly and silently skips everything else (tables, images,
// math, MDX), as the spec requires.
func (w *mdWalker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.out.WriteString(strings.Repeat("#", node.Level) + " ")
		} else {
			w.out.WriteString("\n\n")
		}
	case *ast.Paragraph:
		if !entering {
			w.out.WriteString("\n\n")
		}
	case *ast.TextBlock:
		if !entering {
			w.out.WriteString("\n")
		}
	case *ast.Emphasis:
		marker := "*"
		if node.Level == 2 {
			marker = "**"
		}
		w.out.WriteString(marker)
	case *ast.CodeSpan:
		w.out.WriteString("`")
	case *ast.FencedCodeBlock:
		if entering {
			lang := string(node.Language(w.src))
			if lang == "" {
				lang = w.cf.DefaultBlockCodeLanguage
			}
			w.out.WriteString("```" + lang + "\n")
			for i := 0; i < node.Lines().Len(); i++ {
				l := node.Lines().At(i)
				w.out.Write(l.Value(w.src))
			}
			w.out.WriteString("```\n\n")
			return ast.WalkSkipChildren, nil
		}
	case *ast.Blockquote:
		if entering {
			w.out.WriteString("> ")
		} else {
			w.out.WriteString("\n")
		}
	case *ast.List:
		if entering {
			w.listDepth++
		} else {
			w.listDepth--
			w.out.WriteString("\n")
		}
	case *ast.ListItem:
		if entering {
			indent := ""
			if w.cf.IndentFirstLevelListItems || w.listDepth > 1 {
				indent = strings.Repeat("  ", w.listDepth-1)
			}
			w.out.WriteString(indent + "- ")
		} else {
			w.out.WriteString("\n")
		}
	case *ast.Link:
		if entering {
			if w.cf.ShortcutReferenceLink {
				label := fmt.Sprintf("ref%d", len(w.refLinks)+1)
				w.refLinks = append(w.refLinks, refLink{label: label, dest: string(node.Destination)})
			}
			w.out.WriteString("[")
		} else {
			if w.cf.ShortcutReferenceLink {
				w.out.WriteString(fmt.Sprintf("][ref%d]", len(w.refLinks)))
			} else {
				w.out.WriteString(fmt.Sprintf("](%s)", node.Destination))
			}
		}
	case *ast.AutoLink:
		if entering {
			w.out.Write(node.URL(w.src))
			return ast.WalkSkipChildren, nil
		}
	case *ast.Text:
		if entering {
			w.out.Write(escapeText(node.Segment.Value(w.src), w.cf))
			if node.HardLineBreak() || node.SoftLineBreak() {
				w.out.WriteString("\n")
			}
		}
	case *ast.String:
		if entering {
			w.out.Write(escapeText(node.Value, w.cf))
		}
	default:
		// Tables, images, raw HTML, math, and any other AST node spec.md
		// §4.6 doesn't name are silently dropped by not writing anything
		// and letting children (if any) still walk, except image-like leaf
		// nodes which carry no renderable text anyway.
		_ = node
	}
	return ast.WalkContinue, nil
}

func escapeText(b []byte, cf CommentFormat) []byte {
	s := string(b)
	if cf.EscapeBackslashes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	if cf.EscapeSquareBrackets {
		s = strings.ReplaceAll(s, "[", `\[`)
		s = strings.ReplaceAll(s, "]", `\]`)
	}
	return []byte(s)
}
