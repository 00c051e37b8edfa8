package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatchText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Apple", "apple"},
		{"  Big \n\t Apple ", "big apple"},
		{"<b>Bold</b> name", "bold name"},
		{"<script>x</script>Safe", "safe"},
		{"Fish &amp; Chips", "fish & chips"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MatchText(tt.in); got != tt.want {
			t.Errorf("MatchText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Apple ", "apple"},
		{"Red  Apple", "red apple"},
		{"red\t\napple", "red apple"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderMarkupKeepsFormatting(t *testing.T) {
	got := RenderMarkup(`<b>Hi</b> <a href="x">there</a>`)
	if got != "<b>Hi</b> there" {
		t.Errorf("RenderMarkup = %q", got)
	}
}

func TestSpans(t *testing.T) {
	got := Spans("Order <b>#42</b> for <strong>Acme &amp; Co</strong>")
	want := []Span{
		{Text: "Order "},
		{Text: "#42", Bold: true},
		{Text: " for "},
		{Text: "Acme & Co", Bold: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Spans mismatch (-want +got):\n%s", diff)
	}
}

func TestSpansPlain(t *testing.T) {
	got := Spans("plain text")
	if len(got) != 1 || got[0].Text != "plain text" || got[0].Bold {
		t.Errorf("Spans(plain) = %+v", got)
	}
}
