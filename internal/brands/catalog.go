package brands

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Catalog provides the reference brand entries the fuzzy pass matches
// against. Implementations return the full set; the catalog is small
// reference data, not per-session state.
type Catalog interface {
	All() []Entry
}

// StaticCatalog serves a fixed in-memory entry set.
type StaticCatalog struct {
	entries []Entry
}

func NewStaticCatalog(entries []Entry) *StaticCatalog {
	return &StaticCatalog{entries: entries}
}

func (c *StaticCatalog) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS brands (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS brand_variants (
	brand_id INTEGER NOT NULL,
	variant  TEXT NOT NULL,
	PRIMARY KEY (brand_id, variant)
);
`

// SQLiteCatalog keeps the brand reference data in SQLite and loads it all
// into memory at open. Entries survive across runs, so operators can extend
// the catalog without a rebuild.
type SQLiteCatalog struct {
	db      *sqlx.DB
	entries []Entry
}

func OpenSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	c := &SQLiteCatalog{db: db}
	if err := c.seedIfEmpty(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if err := c.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AddEntry inserts a brand with its variants and refreshes the in-memory set.
func (c *SQLiteCatalog) AddEntry(e Entry) error {
	if _, err := c.db.Exec(`INSERT OR IGNORE INTO brands (name, category) VALUES (?, ?)`, e.Name, e.Category); err != nil {
		return fmt.Errorf("insert brand %q: %w", e.Name, err)
	}
	var id int64
	if err := c.db.Get(&id, `SELECT id FROM brands WHERE name = ?`, e.Name); err != nil {
		return fmt.Errorf("resolve brand id %q: %w", e.Name, err)
	}
	for _, v := range e.Variants {
		if _, err := c.db.Exec(`INSERT OR IGNORE INTO brand_variants (brand_id, variant) VALUES (?, ?)`, id, v); err != nil {
			return fmt.Errorf("insert variant %q: %w", v, err)
		}
	}
	return c.load()
}

func (c *SQLiteCatalog) load() error {
	var entries []Entry
	if err := c.db.Select(&entries, `SELECT id, name, category FROM brands ORDER BY name`); err != nil {
		return err
	}
	byID := make(map[int64]*Entry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	rows, err := c.db.Query(`SELECT brand_id, variant FROM brand_variants`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var brandID int64
		var variant string
		if err := rows.Scan(&brandID, &variant); err != nil {
			return err
		}
		if e, ok := byID[brandID]; ok {
			e.Variants = append(e.Variants, variant)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.entries = entries
	return nil
}

func (c *SQLiteCatalog) seedIfEmpty() error {
	var count int
	if err := c.db.Get(&count, `SELECT COUNT(*) FROM brands`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, e := range SeedEntries() {
		res, err := c.db.Exec(`INSERT INTO brands (name, category) VALUES (?, ?)`, e.Name, e.Category)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, v := range e.Variants {
			if _, err := c.db.Exec(`INSERT INTO brand_variants (brand_id, variant) VALUES (?, ?)`, id, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedEntries is the starter catalog of brands common in Scandinavian
// auction cataloging, each with the misspellings seen in real lot copy.
func SeedEntries() []Entry {
	return []Entry{
		{Name: "Orrefors", Category: "glass", Variants: []string{"Orrefross", "Orefors", "Orrefos"}},
		{Name: "Kosta Boda", Category: "glass", Variants: []string{"Costa Boda", "Kostaboda", "Kosta Bode"}},
		{Name: "Iittala", Category: "glass", Variants: []string{"Ittala", "Iitala", "Littala"}},
		{Name: "Rörstrand", Category: "ceramics", Variants: []string{"Rorstrand", "Rörstand", "Röstrand"}},
		{Name: "Gustavsberg", Category: "ceramics", Variants: []string{"Gustafsberg", "Gustavsburg"}},
		{Name: "Royal Copenhagen", Category: "ceramics", Variants: []string{"Royal Kopenhagen", "Royal Copenhagan"}},
		{Name: "Arabia", Category: "ceramics", Variants: []string{"Arrabia"}},
		{Name: "Georg Jensen", Category: "silver", Variants: []string{"George Jensen", "Georg Jenssen"}},
		{Name: "Lalique", Category: "glass", Variants: []string{"Lallique", "Lalique France"}},
		{Name: "Rolex", Category: "watches", Variants: []string{"Rollex"}},
		{Name: "Omega", Category: "watches", Variants: []string{"Omegha"}},
	}
}
