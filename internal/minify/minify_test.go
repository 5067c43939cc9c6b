package minify

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trailing whitespace", "a  \nb\t", "a\nb"},
		{"blank runs", "\n\na\n\n\n\nb\n\n", "a\n\nb"},
		{"crlf", "a\r\n\r\n\r\nb\r\n", "a\n\nb"},
		{"indentation kept", "func f() {\n\treturn\n}", "func f() {\n\treturn\n}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLinesKeepsLineCount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a  \n\n\n\nb\t", "a\n\n\n\nb"},
		{"a\r\n\r\nb \r\n", "a\n\nb\n"},
		{"\n\n  x", "\n\n  x"},
	}
	for _, tc := range tests {
		got := Lines(tc.in)
		if got != tc.want {
			t.Errorf("Lines(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if n, m := strings.Count(got, "\n"), strings.Count(strings.ReplaceAll(tc.in, "\r\n", "\n"), "\n"); n != m {
			t.Errorf("Lines(%q) has %d newlines, want %d", tc.in, n, m)
		}
	}
}

func TestMarkdown(t *testing.T) {
	in := "# Title\n\n\n" +
		"Some *text* here\nwrapped.\n\n" +
		"<!-- comment -->\n\n" +
		"- one\n- two\n  - nested\n\n" +
		"1. first\n2. second\n\n" +
		"```go\nfmt.Println(\"x\")\n```\n"
	want := "# Title\n\n" +
		"Some *text* here wrapped.\n\n" +
		"- one\n- two\n  - nested\n\n" +
		"1. first\n2. second\n\n" +
		"```go\nfmt.Println(\"x\")\n```"

	if got := Markdown(in); got != want {
		t.Errorf("Markdown() =\n%s\nwant\n%s", got, want)
	}
}

func TestMarkdownTable(t *testing.T) {
	in := "| a | b |\n|---|:-:|\n| 1 | 2 |\n"
	want := "| a | b |\n| --- | --- |\n| 1 | 2 |"
	if got := Markdown(in); got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}

func TestMarkdownLinks(t *testing.T) {
	in := "See [docs](https://example.com/docs) and `code`.\n"
	want := "See [docs](https://example.com/docs) and `code`."
	if got := Markdown(in); got != want {
		t.Errorf("Markdown() = %q, want %q", got, want)
	}
}

func TestContentDispatchesOnPath(t *testing.T) {
	if got := Content("docs/guide.md", "#  Guide\n\n\n\ntext"); got != "# Guide\n\ntext" {
		t.Errorf("markdown: got %q", got)
	}
	if got := Content("main.go", "x  \n\n\ny"); got != "x\n\ny" {
		t.Errorf("text: got %q", got)
	}
}
