// Package minify shrinks fetched file content before it is returned to a
// caller, keeping it readable while dropping decoration.
package minify

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ziadkadry99/repolens/internal/pathfilter"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Content minifies text according to the file type of path. Markdown is
// re-rendered compactly; everything else has trailing whitespace trimmed and
// runs of blank lines collapsed.
func Content(path, content string) string {
	if pathfilter.IsMarkdown(path) {
		return Markdown(content)
	}
	return Text(content)
}

// Text trims trailing whitespace from every line and collapses consecutive
// blank lines into one. Leading and trailing blank lines are removed.
func Text(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// Lines trims trailing whitespace from every line and keeps the line count,
// so the result still lines up with the original line numbers.
func Lines(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// Markdown parses content and renders it back as compact Markdown: one
// blank line between blocks, soft wraps joined, HTML comments dropped.
func Markdown(content string) string {
	src := []byte(content)
	doc := md.Parser().Parse(text.NewReader(src))
	r := &renderer{src: src}
	r.blocks(doc, "")
	return strings.TrimRight(r.buf.String(), "\n")
}

type renderer struct {
	src []byte
	buf bytes.Buffer
}

// blocks renders the block children of n, each prefixed by indent.
func (r *renderer) blocks(n ast.Node, indent string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, indent)
	}
}

func (r *renderer) block(n ast.Node, indent string) {
	switch b := n.(type) {
	case *ast.Heading:
		r.line(indent, strings.Repeat("#", b.Level)+" "+r.inline(b))
		r.gap()
	case *ast.Paragraph, *ast.TextBlock:
		for _, l := range strings.Split(r.inline(b), "\n") {
			r.line(indent, l)
		}
		if n.Parent() == nil || n.Parent().Kind() != ast.KindListItem {
			r.gap()
		}
	case *ast.List:
		num := b.Start
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "- "
			if b.IsOrdered() {
				marker = strconv.Itoa(num) + ". "
				num++
			}
			r.listItem(item, indent, marker)
		}
		if n.Parent() == nil || n.Parent().Kind() != ast.KindListItem {
			r.gap()
		}
	case *ast.FencedCodeBlock:
		r.line(indent, "```"+string(b.Language(r.src)))
		r.rawLines(b, indent)
		r.line(indent, "```")
		r.gap()
	case *ast.CodeBlock:
		r.line(indent, "```")
		r.rawLines(b, indent)
		r.line(indent, "```")
		r.gap()
	case *ast.Blockquote:
		r.blocks(b, indent+"> ")
	case *ast.ThematicBreak:
		r.line(indent, "---")
		r.gap()
	case *ast.HTMLBlock:
		if b.HTMLBlockType == ast.HTMLBlockType2 {
			return
		}
		r.rawLines(b, indent)
		if b.HasClosure() {
			r.line(indent, strings.TrimRight(string(b.ClosureLine.Value(r.src)), "\n"))
		}
		r.gap()
	case *east.Table:
		r.table(b, indent)
		r.gap()
	default:
		r.blocks(n, indent)
	}
}

func (r *renderer) listItem(item ast.Node, indent, marker string) {
	first := true
	pad := strings.Repeat(" ", len(marker))
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.Kind() {
		case ast.KindParagraph, ast.KindTextBlock:
			lines := strings.Split(r.inline(c), "\n")
			for i, l := range lines {
				if first && i == 0 {
					r.line(indent, marker+l)
					continue
				}
				r.line(indent, pad+l)
			}
		default:
			if first {
				r.line(indent, strings.TrimRight(marker, " "))
			}
			r.block(c, indent+pad)
		}
		first = false
	}
	if first {
		r.line(indent, strings.TrimRight(marker, " "))
	}
}

func (r *renderer) table(t *east.Table, indent string) {
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell))
		}
		r.line(indent, "| "+strings.Join(cells, " | ")+" |")
		if row.Kind() == east.KindTableHeader {
			sep := make([]string, len(cells))
			for i := range sep {
				sep[i] = "---"
			}
			r.line(indent, "| "+strings.Join(sep, " | ")+" |")
		}
	}
}

func (r *renderer) rawLines(n ast.Node, indent string) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		r.line(indent, strings.TrimRight(string(seg.Value(r.src)), "\r\n"))
	}
}

func (r *renderer) line(indent, s string) {
	r.buf.WriteString(strings.TrimRight(indent+s, " "))
	r.buf.WriteByte('\n')
}

// gap ends a block with a single blank line.
func (r *renderer) gap() {
	b := r.buf.Bytes()
	if len(b) == 0 || bytes.HasSuffix(b, []byte("\n\n")) {
		return
	}
	r.buf.WriteByte('\n')
}

// inline renders the inline children of n on as few lines as possible.
func (r *renderer) inline(n ast.Node) string {
	var sb strings.Builder
	r.inlineInto(&sb, n)
	return strings.TrimSpace(sb.String())
}

func (r *renderer) inlineInto(sb *strings.Builder, n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(r.src))
			switch {
			case v.HardLineBreak():
				sb.WriteByte('\n')
			case v.SoftLineBreak():
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.CodeSpan:
			sb.WriteByte('`')
			r.inlineInto(sb, v)
			sb.WriteByte('`')
		case *ast.Emphasis:
			mark := strings.Repeat("*", v.Level)
			sb.WriteString(mark)
			r.inlineInto(sb, v)
			sb.WriteString(mark)
		case *ast.Link:
			sb.WriteByte('[')
			r.inlineInto(sb, v)
			sb.WriteString("](")
			sb.Write(v.Destination)
			sb.WriteByte(')')
		case *ast.Image:
			sb.WriteString("![")
			r.inlineInto(sb, v)
			sb.WriteString("](")
			sb.Write(v.Destination)
			sb.WriteByte(')')
		case *ast.AutoLink:
			sb.Write(v.URL(r.src))
		case *ast.RawHTML:
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				sb.Write(seg.Value(r.src))
			}
		case *east.Strikethrough:
			sb.WriteString("~~")
			r.inlineInto(sb, v)
			sb.WriteString("~~")
		case *east.TaskCheckBox:
			if v.IsChecked {
				sb.WriteString("[x] ")
			} else {
				sb.WriteString("[ ] ")
			}
		default:
			r.inlineInto(sb, c)
		}
	}
}
