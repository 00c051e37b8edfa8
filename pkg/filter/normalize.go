package filter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// stripAll removes every tag; labels are matched on their text only
	stripAll = bluemonday.StrictPolicy()

	// formatting keeps the few tags the row renderer knows how to style
	formatting = bluemonday.NewPolicy().AllowElements("b", "strong")
)

// Normalize prepares a typed query for matching: whitespace collapsed the same
// way labels are, lowercased
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// MatchText reduces a label to the text used for matching: markup stripped,
// entities decoded, whitespace collapsed, lowercased.
func MatchText(label string) string {
	return strings.ToLower(PlainText(label))
}

// PlainText strips markup and collapses whitespace but keeps case
func PlainText(label string) string {
	if label == "" {
		return ""
	}
	text := label
	if strings.ContainsAny(text, "<&") {
		text = html.UnescapeString(stripAll.Sanitize(text))
	}
	return strings.Join(strings.Fields(text), " ")
}

// RenderMarkup sanitizes a label for display, keeping only <b>/<strong>
func RenderMarkup(label string) string {
	if !strings.ContainsAny(label, "<&") {
		return label
	}
	return formatting.Sanitize(label)
}

// Span is a run of label text with its formatting
type Span struct {
	Text string
	Bold bool
}

// Spans splits a sanitized label into plain and bold runs for styling
func Spans(label string) []Span {
	markup := RenderMarkup(label)
	var spans []Span
	bold := 0
	for markup != "" {
		lt := strings.IndexByte(markup, '<')
		if lt < 0 {
			spans = appendSpan(spans, html.UnescapeString(markup), bold > 0)
			break
		}
		if lt > 0 {
			spans = appendSpan(spans, html.UnescapeString(markup[:lt]), bold > 0)
		}
		gt := strings.IndexByte(markup[lt:], '>')
		if gt < 0 {
			spans = appendSpan(spans, html.UnescapeString(markup[lt:]), bold > 0)
			break
		}
		tag := strings.ToLower(markup[lt+1 : lt+gt])
		switch tag {
		case "b", "strong":
			bold++
		case "/b", "/strong":
			if bold > 0 {
				bold--
			}
		}
		markup = markup[lt+gt+1:]
	}
	return spans
}

func appendSpan(spans []Span, text string, bold bool) []Span {
	if text == "" {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].Bold == bold {
		spans[n-1].Text += text
		return spans
	}
	return append(spans, Span{Text: text, Bold: bold})
}
