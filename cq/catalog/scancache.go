package catalog

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// ScanCache memoizes a relation's decoded CSV rows on disk, so that
// Join's repeated inner-subtree resets (which transitively re-read the
// inner scans once per outer tuple) don't re-parse CSV text on every
// reset. It is strictly an optimization: a Scan with no cache, or a
// cache miss, always falls back to reading the CSV file directly, so
// ScanCache never changes query results, only how many times a file is
// parsed.
//
// Entries are keyed by the resolved CSV path, not the bare relation
// name: two databases can both declare a relation named "R" at
// different paths, and a cache opened once and reused across Evaluate
// calls against different database directories must not serve one
// database's rows for the other's same-named relation.
type ScanCache struct {
	db *badger.DB
}

const fieldSeparator = "\x1f"
const rowSeparator = "\x1e"

// OpenScanCache opens (creating if necessary) a Badger-backed cache at
// path, with Badger's own logger disabled.
func OpenScanCache(path string) (*ScanCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening scan cache at %s: %w", path, err)
	}
	return &ScanCache{db: db}, nil
}

// Close releases the underlying Badger handles.
func (c *ScanCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Rows retrieves the cached raw CSV rows (each row as its split fields)
// for the relation whose CSV file is at csvPath, or (nil, false) on a
// miss.
func (c *ScanCache) Rows(csvPath string) ([][]string, bool) {
	if c == nil {
		return nil, false
	}

	var encoded []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(csvPath))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			encoded = append(encoded, val...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}

	if len(encoded) == 0 {
		return [][]string{}, true
	}
	rawRows := strings.Split(string(encoded), rowSeparator)
	rows := make([][]string, len(rawRows))
	for i, raw := range rawRows {
		rows[i] = strings.Split(raw, fieldSeparator)
	}
	return rows, true
}

// Store records the decoded rows for the relation whose CSV file is at
// csvPath, overwriting any prior entry.
func (c *ScanCache) Store(csvPath string, rows [][]string) error {
	if c == nil {
		return nil
	}

	rawRows := make([]string, len(rows))
	for i, row := range rows {
		rawRows[i] = strings.Join(row, fieldSeparator)
	}
	encoded := strings.Join(rawRows, rowSeparator)

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(csvPath), []byte(encoded))
	})
}
