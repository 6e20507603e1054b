package brands

import (
	"path/filepath"
	"testing"
)

func TestSQLiteCatalogSeedsAndPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "brands.db")

	c, err := OpenSQLiteCatalog(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	entries := c.All()
	if len(entries) != len(SeedEntries()) {
		t.Fatalf("got %d seeded entries, want %d", len(entries), len(SeedEntries()))
	}
	var orrefors *Entry
	for i := range entries {
		if entries[i].Name == "Orrefors" {
			orrefors = &entries[i]
		}
	}
	if orrefors == nil {
		t.Fatal("Orrefors missing from seed")
	}
	if len(orrefors.Variants) == 0 {
		t.Fatal("Orrefors has no variants")
	}

	if err := c.AddEntry(Entry{Name: "Venini", Category: "glass", Variants: []string{"Vennini"}}); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen: the added brand must survive and the seed must not repeat.
	c2, err := OpenSQLiteCatalog(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	if got, want := len(c2.All()), len(SeedEntries())+1; got != want {
		t.Fatalf("got %d entries after reopen, want %d", got, want)
	}
	found := false
	for _, e := range c2.All() {
		if e.Name == "Venini" && len(e.Variants) == 1 && e.Variants[0] == "Vennini" {
			found = true
		}
	}
	if !found {
		t.Fatal("Venini entry did not persist")
	}
}
