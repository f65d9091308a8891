package operator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/catalog"
	"github.com/cqlang/cq-engine/cq/term"
)

func writeCSV(t *testing.T, dir, name, content string) catalog.RelationalSchema {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "files"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "files", name+".csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return catalog.RelationalSchema{Name: name, CSVPath: path}
}

func TestScanDecodesFields(t *testing.T) {
	dir := t.TempDir()
	schema := writeCSV(t, dir, "R", "1, 'alice'\n2, 'bob'\n")
	schema.ColumnTypes = []catalog.ColumnType{catalog.Int, catalog.Str}

	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("id"), v("name")}}
	s := NewScan(schema, rel, nil)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	rows := drain(t, s)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].(term.IntConst).Value != 1 || rows[0][1].(term.StrConst).Value != "alice" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
}

func TestScanArityMismatchErrors(t *testing.T) {
	dir := t.TempDir()
	schema := writeCSV(t, dir, "R", "1, 2, 3\n")
	schema.ColumnTypes = []catalog.ColumnType{catalog.Int, catalog.Int}

	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a"), v("b")}}
	s := NewScan(schema, rel, nil)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, _, err := s.Next()
	if err == nil {
		t.Fatal("expected arity mismatch error")
	}
}

func TestScanResetRewinds(t *testing.T) {
	dir := t.TempDir()
	schema := writeCSV(t, dir, "R", "1\n2\n")
	schema.ColumnTypes = []catalog.ColumnType{catalog.Int}

	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a")}}
	s := NewScan(schema, rel, nil)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	first := drain(t, s)
	if len(first) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(first))
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	second := drain(t, s)
	if len(second) != 2 {
		t.Fatalf("expected 2 rows after reset, got %d", len(second))
	}
}

func TestScanUsesCacheOnHit(t *testing.T) {
	dir := t.TempDir()
	schema := writeCSV(t, dir, "R", "1\n2\n")
	schema.ColumnTypes = []catalog.ColumnType{catalog.Int}

	cache, err := catalog.OpenScanCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatalf("OpenScanCache: %v", err)
	}
	defer cache.Close()

	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a")}}

	first := NewScan(schema, rel, cache)
	if err := first.Open(); err != nil {
		t.Fatal(err)
	}
	if rows := drain(t, first); len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first.Close()

	// Delete the CSV file: a second scan must still succeed from cache.
	if err := os.Remove(schema.CSVPath); err != nil {
		t.Fatal(err)
	}

	second := NewScan(schema, rel, cache)
	if err := second.Open(); err != nil {
		t.Fatalf("Open from cache: %v", err)
	}
	defer second.Close()
	rows := drain(t, second)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from cache, got %d", len(rows))
	}
}

// TestScanCacheDoesNotCollideAcrossDatabases guards against a cache
// keyed on bare relation name: two databases that both declare a
// relation named "R" must not have one database's cached rows served
// for the other's scan.
func TestScanCacheDoesNotCollideAcrossDatabases(t *testing.T) {
	cacheDir := t.TempDir()
	cache, err := catalog.OpenScanCache(filepath.Join(cacheDir, ".cache"))
	if err != nil {
		t.Fatalf("OpenScanCache: %v", err)
	}
	defer cache.Close()

	dbA := t.TempDir()
	schemaA := writeCSV(t, dbA, "R", "1\n")
	schemaA.ColumnTypes = []catalog.ColumnType{catalog.Int}

	dbB := t.TempDir()
	schemaB := writeCSV(t, dbB, "R", "2\n3\n")
	schemaB.ColumnTypes = []catalog.ColumnType{catalog.Int}

	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a")}}

	scanA := NewScan(schemaA, rel, cache)
	if err := scanA.Open(); err != nil {
		t.Fatal(err)
	}
	if rows := drain(t, scanA); len(rows) != 1 {
		t.Fatalf("expected 1 row from database A, got %d", len(rows))
	}
	scanA.Close()

	scanB := NewScan(schemaB, rel, cache)
	if err := scanB.Open(); err != nil {
		t.Fatal(err)
	}
	defer scanB.Close()
	rows := drain(t, scanB)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from database B's own file, got %d: %v", len(rows), rows)
	}
}
