package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func labelsAt(labels []string, res Result) []string {
	out := make([]string, 0, res.Len())
	for _, i := range res.Indices {
		out = append(out, labels[i])
	}
	return out
}

func TestFilterFruitScenario(t *testing.T) {
	labels := []string{"Apple", "Apricot", "Banana"}
	e := NewEngine()
	e.SetLabels(labels)

	if diff := cmp.Diff([]string{"Apple", "Apricot"}, labelsAt(labels, e.Filter("ap"))); diff != "" {
		t.Errorf("filter(ap) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Banana"}, labelsAt(labels, e.Filter("an"))); diff != "" {
		t.Errorf("filter(an) mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterPrefixMatchesFirstInSourceOrder(t *testing.T) {
	labels := []string{
		"Green Apple", // substring
		"Apple Pie",   // prefix
		"Crab apple",  // substring
		"apple",       // prefix
		"Pear",        // none
	}
	e := NewEngine()
	e.SetLabels(labels)

	res := e.Filter("apple")
	want := []string{"Apple Pie", "apple", "Green Apple", "Crab apple"}
	if diff := cmp.Diff(want, labelsAt(labels, res)); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
	if res.Prefix != 2 {
		t.Errorf("Prefix = %d, want 2", res.Prefix)
	}
}

func TestFilterEmptyQueryReturnsAllWithoutScan(t *testing.T) {
	labels := []string{"b", "a", "c"}
	e := NewEngine()
	e.SetLabels(labels)

	res := e.Filter("   ")
	if diff := cmp.Diff([]int{0, 1, 2}, res.Indices); diff != "" {
		t.Errorf("empty query mismatch (-want +got):\n%s", diff)
	}
	if !res.All() {
		t.Error("empty query result should report All()")
	}
	if e.Scans() != 0 {
		t.Errorf("Scans() = %d, want 0", e.Scans())
	}
}

func TestFilterNormalizesQueryAndLabels(t *testing.T) {
	labels := []string{"<b>Big</b>   Apple", "Tom &amp; Jerry", "Plain"}
	e := NewEngine()
	e.SetLabels(labels)

	if got := e.Filter("  BIG APPLE ").Len(); got != 1 {
		t.Errorf("markup and whitespace not normalized: %d matches", got)
	}
	if got := e.Filter("b>").Len(); got != 0 {
		t.Errorf("markup matched literally: %d matches", got)
	}
	if got := e.Filter("tom & j").Len(); got != 1 {
		t.Errorf("entities not decoded: %d matches", got)
	}
	if got := e.Filter("big  \t apple").Len(); got != 1 {
		t.Errorf("query whitespace not collapsed: %d matches", got)
	}
}

func TestFilterIdempotentAndCached(t *testing.T) {
	labels := []string{"Apple", "Apricot", "Banana"}
	e := NewEngine()
	e.SetLabels(labels)

	first := e.Filter("ap")
	second := e.Filter("ap")
	if diff := cmp.Diff(first.Indices, second.Indices); diff != "" {
		t.Errorf("second call differs (-first +second):\n%s", diff)
	}
	if e.Scans() != 1 {
		t.Errorf("Scans() = %d, want 1 (second call must hit cache)", e.Scans())
	}
	if &first.Indices[0] != &second.Indices[0] {
		t.Error("cached result should be identity-stable")
	}
}

func TestFilterResultCacheSurvivesOtherQueries(t *testing.T) {
	e := NewEngine()
	e.SetLabels([]string{"Apple", "Banana"})

	e.Filter("ap")
	e.Filter("ban")
	e.Filter("ap")
	if e.Scans() != 2 {
		t.Errorf("Scans() = %d, want 2", e.Scans())
	}
}

func TestFilterSetLabelsInvalidatesCache(t *testing.T) {
	e := NewEngine()
	e.SetLabels([]string{"Apple"})
	if e.Filter("ap").Len() != 1 {
		t.Fatal("expected one match")
	}
	e.SetLabels([]string{"Banana", "Apricot", "Apex"})
	if got := e.Filter("ap").Len(); got != 2 {
		t.Errorf("stale cache after SetLabels: %d matches, want 2", got)
	}
}

func TestFilterNarrowingKeepsSourceOrder(t *testing.T) {
	labels := []string{
		"xx apr",     // substring for "ap" and "apr"
		"apple apr",  // prefix for "ap", substring for "apr"
		"apricot",    // prefix for both
		"zzz",        // none
		"tapr",       // substring for both
		"aprons",     // prefix for both
		"ap only",    // prefix for "ap", no match for "apr"
		"nothing ap", // substring for "ap", no match for "apr"
	}
	narrowed := NewEngine()
	narrowed.SetLabels(labels)
	narrowed.Filter("ap")
	got := narrowed.Filter("apr")

	fresh := NewEngine()
	fresh.SetLabels(labels)
	want := fresh.Filter("apr")

	if diff := cmp.Diff(want.Indices, got.Indices); diff != "" {
		t.Errorf("narrowed result differs from full scan (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"apricot", "aprons", "xx apr", "apple apr", "tapr"}, labelsAt(labels, got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterNoMatchesAndEmptySet(t *testing.T) {
	e := NewEngine()
	e.SetLabels(nil)
	if e.Filter("x").Len() != 0 {
		t.Error("empty set should produce no matches")
	}
	if e.Filter("").Len() != 0 {
		t.Error("empty set with empty query should produce nothing")
	}

	e.SetLabels([]string{"", "<i></i>"})
	if e.Filter("a").Len() != 0 {
		t.Error("blank labels should not match")
	}
}

func bigLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("Item %05d", i)
	}
	return labels
}

func TestChunkedPassMatchesSynchronous(t *testing.T) {
	labels := bigLabels(ChunkThreshold + 5000)
	e := NewEngine()
	e.SetLabels(labels)
	if !e.Chunked() {
		t.Fatal("expected chunked filtering above threshold")
	}

	pass, _, ok := e.Begin("item 1")
	if ok {
		t.Fatal("expected a pass for an uncached query")
	}
	steps := 0
	for !pass.Step(ChunkSize) {
		steps++
		if _, published := e.Publish(pass); published {
			t.Fatal("incomplete pass must not publish")
		}
	}
	if steps < 10 {
		t.Errorf("expected the pass to take many steps, took %d", steps)
	}
	res, published := e.Publish(pass)
	if !published {
		t.Fatal("completed latest pass should publish")
	}

	sync := NewEngine()
	sync.SetLabels(labels)
	if diff := cmp.Diff(sync.Filter("item 1").Indices, res.Indices); diff != "" {
		t.Errorf("chunked differs from sync (-sync +chunked):\n%s", diff)
	}
}

func TestSupersededPassNeverPublishes(t *testing.T) {
	e := NewEngine()
	e.SetLabels(bigLabels(ChunkThreshold + 1))

	stale, _, _ := e.Begin("item 0")
	stale.Step(ChunkSize)

	latest, _, _ := e.Begin("item 1")
	if !stale.Step(ChunkSize) {
		t.Error("superseded pass should stop on next step")
	}
	if _, ok := e.Publish(stale); ok {
		t.Fatal("stale pass published")
	}

	for !latest.Step(ChunkSize) {
	}
	res, ok := e.Publish(latest)
	if !ok || res.Query != "item 1" {
		t.Fatalf("latest pass not published: %v %q", ok, res.Query)
	}
	if last, _ := e.Last(); last.Query != "item 1" {
		t.Errorf("Last().Query = %q", last.Query)
	}
}

func TestCancelSupersedesPass(t *testing.T) {
	e := NewEngine()
	e.SetLabels(bigLabels(100))
	pass, _, _ := e.Begin("item")
	e.Cancel()
	for !pass.Step(10) {
	}
	if _, ok := e.Publish(pass); ok {
		t.Error("cancelled pass published")
	}
}

func TestFuzzyMode(t *testing.T) {
	labels := []string{"Banana", "Apple", "Application", "Grape"}
	e := NewEngine(WithMode(ModeFuzzy))
	e.SetLabels(labels)

	res := e.Filter("apl")
	got := labelsAt(labels, res)
	if len(got) != 2 {
		t.Fatalf("expected 2 fuzzy matches, got %v", got)
	}
	for _, l := range got {
		if l != "Apple" && l != "Application" {
			t.Errorf("unexpected fuzzy match %q", l)
		}
	}
}

func TestLabelCacheBounded(t *testing.T) {
	e := NewEngine(WithLabelCacheSize(10))
	e.SetLabels(bigLabels(100))
	e.Filter("item")
	if n := e.LabelCacheStats().Len; n > 10 {
		t.Errorf("label cache holds %d entries, bound is 10", n)
	}
}

func TestDebounceFor(t *testing.T) {
	base := 100 * time.Millisecond
	tests := []struct {
		n    int
		want time.Duration
	}{
		{10, base},
		{1000, 2 * base},
		{20000, 3 * base},
		{60000, 4 * base},
	}
	for _, tt := range tests {
		if got := DebounceFor(base, tt.n); got != tt.want {
			t.Errorf("DebounceFor(%v, %d) = %v, want %v", base, tt.n, got, tt.want)
		}
	}
	if DebounceFor(0, 1) != DefaultDebounce {
		t.Error("zero base should fall back to DefaultDebounce")
	}
}
