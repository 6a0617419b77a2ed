package service

import (
	"bytes"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// tocMarker on a line of its own is replaced by the table of contents.
var tocMarker = []byte("[TOC]")

// MarkdownRenderer renders GitHub flavoured markdown with heading anchors,
// an optional table of contents and syntax highlighted code blocks.
// Raw HTML in the source is not passed through.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(highlighting.WithStyle("github")),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &MarkdownRenderer{md: md}
}

func (r *MarkdownRenderer) Render(src []byte) (string, error) {
	doc := r.md.Parser().Parse(text.NewReader(src))

	if markers := findTOCMarkers(doc, src); len(markers) > 0 {
		tree, err := toc.Inspect(doc, src)
		if err != nil {
			return "", err
		}
		for _, m := range markers {
			parent := m.Parent()
			if list := toc.RenderList(tree); list != nil {
				parent.ReplaceChild(parent, m, list)
			} else {
				parent.RemoveChild(parent, m)
			}
		}
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func findTOCMarkers(doc ast.Node, src []byte) []ast.Node {
	var out []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if p, ok := n.(*ast.Paragraph); ok {
			if bytes.Equal(bytes.TrimSpace(lineText(p, src)), tocMarker) {
				out = append(out, p)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func lineText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}
