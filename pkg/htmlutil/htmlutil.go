package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Escaped is text that has had the html-significant characters (& < > " ')
// escaped exactly once. It can only be produced by Escape or by Canonical, so
// raw text cannot be rendered into markup by accident and escaped text
// cannot be escaped a second time.
type Escaped struct {
	value string
}

// Escape escapes raw text for embedding into html markup.
func Escape(raw string) Escaped {
	return Escaped{value: html.EscapeString(raw)}
}

// Canonical converts text that may or may not already be escaped, for example
// a name read back from a store, into its escaped form. Escaped input is
// returned unchanged.
func Canonical(text string) Escaped {
	return Escape(html.UnescapeString(text))
}

// String returns the escaped form.
func (e Escaped) String() string {
	return e.value
}

// Raw returns the text with entities unescaped, for plain text renderings.
func (e Escaped) Raw() string {
	return html.UnescapeString(e.value)
}

func (e Escaped) IsEmpty() bool {
	return e.value == ""
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText removes non-printable characters, collapses runs of whitespace
// into a single space and trims the result.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SelectionText returns the cleaned text of every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	var buffer strings.Builder
	for _, n := range sel.Nodes {
		buffer.WriteString(GetText(n))
		buffer.WriteByte(' ')
	}
	return CleanText(buffer.String())
}

// StripTags turns an html formatted message into plain text, line breaks in
// the source are kept.
func StripTags(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return doc.Text()
}
