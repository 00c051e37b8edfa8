package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/vselect/pkg/model"
	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T, driver string) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "vselect.db"), driver)
	if err != nil {
		if driver == DriverCgo && strings.Contains(err.Error(), "cgo") {
			t.Skip("cgo sqlite driver unavailable in this build")
		}
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func forEachDriver(t *testing.T, fn func(t *testing.T, db *DB)) {
	for _, driver := range []string{DriverCgo, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestDB(t, driver))
		})
	}
}

func TestCatalogueRoundTrip(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		opts := model.Options{
			{Label: "Zucchini", Value: "z"},
			{Label: "Apple", Value: "a", Record: model.Record{"color": "red"}},
			{Label: "<b>Banana</b>", Value: "b"},
		}
		if err := db.SaveCatalogue(ctx, "produce", opts); err != nil {
			t.Fatalf("SaveCatalogue: %v", err)
		}

		got, err := db.LoadCatalogue(ctx, "produce")
		if err != nil {
			t.Fatalf("LoadCatalogue: %v", err)
		}
		// source order is preserved, not sorted
		if diff := cmp.Diff(opts, got); diff != "" {
			t.Errorf("catalogue mismatch (-want +got):\n%s", diff)
		}

		// replacing shrinks the catalogue
		if err := db.SaveCatalogue(ctx, "produce", opts[:1]); err != nil {
			t.Fatal(err)
		}
		got, _ = db.LoadCatalogue(ctx, "produce")
		if len(got) != 1 {
			t.Errorf("after replace len = %d, want 1", len(got))
		}

		names, err := db.Catalogues(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"produce"}, names); diff != "" {
			t.Errorf("Catalogues mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestSelectionRoundTrip(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		if _, err := db.LoadSelection(ctx, "customer"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("empty LoadSelection err = %v, want ErrNotFound", err)
		}

		if err := db.SaveSelection(ctx, "customer", []string{"2"}); err != nil {
			t.Fatal(err)
		}
		if err := db.SaveSelection(ctx, "customer", []string{"3", "1"}); err != nil {
			t.Fatal(err)
		}
		sel, err := db.LoadSelection(ctx, "customer")
		if err != nil {
			t.Fatalf("LoadSelection: %v", err)
		}
		if diff := cmp.Diff([]string{"3", "1"}, sel.Values); diff != "" {
			t.Errorf("values mismatch (-want +got):\n%s", diff)
		}
		if sel.UpdatedAt.IsZero() {
			t.Error("UpdatedAt not set")
		}

		if err := db.SaveSelection(ctx, "customer", nil); err != nil {
			t.Fatal(err)
		}
		if _, err := db.LoadSelection(ctx, "customer"); !errors.Is(err, ErrNotFound) {
			t.Errorf("cleared selection err = %v, want ErrNotFound", err)
		}
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), "postgres"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
