package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/catalog"
	"github.com/cqlang/cq-engine/cq/term"
)

func v(name string) term.Variable { return term.Variable{Name: name} }
func i(n int64) term.IntConst     { return term.IntConst{Value: n} }

func writeDB(t *testing.T, files map[string]string, schemaLines []string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "files"), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, "files", name+".csv"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	schemaText := ""
	for _, l := range schemaLines {
		schemaText += l + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, "schema.txt"), []byte(schemaText), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestPlanSimpleJoin(t *testing.T) {
	dir := writeDB(t,
		map[string]string{
			"R": "1, 2\n3, 2\n",
			"S": "2, 10\n",
		},
		[]string{"R int int", "S int int"},
	)

	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Q(x, z) :- R(x, y), S(y, z)
	q := atom.Query{
		Head: atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("x"), v("z")}},
		Body: []atom.Atom{
			atom.RelationalAtom{Name: "R", Terms: []term.Term{v("x"), v("y")}},
			atom.RelationalAtom{Name: "S", Terms: []term.Term{v("y"), v("z")}},
		},
	}

	p := New(cat, nil, nil)
	op, err := p.Plan(q)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if err := op.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer op.Close()

	var rows int
	for {
		_, ok, err := op.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		rows++
	}
	if rows != 2 {
		t.Fatalf("expected 2 result rows, got %d", rows)
	}
}

func TestPlanRejectsUnsafeHead(t *testing.T) {
	dir := writeDB(t,
		map[string]string{"R": "1\n"},
		[]string{"R int"},
	)
	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Q(z) :- R(x)   -- z never appears in the body.
	q := atom.Query{
		Head: atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("z")}},
		Body: []atom.Atom{
			atom.RelationalAtom{Name: "R", Terms: []term.Term{v("x")}},
		},
	}

	p := New(cat, nil, nil)
	if _, err := p.Plan(q); err == nil {
		t.Fatal("expected an unsafe-query error")
	}
}

func TestPlanPushesDownEmbeddedConstant(t *testing.T) {
	dir := writeDB(t,
		map[string]string{"R": "1, 2\n3, 2\n"},
		[]string{"R int int"},
	)
	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Q(x) :- R(x, 2)
	q := atom.Query{
		Head: atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("x")}},
		Body: []atom.Atom{
			atom.RelationalAtom{Name: "R", Terms: []term.Term{v("x"), i(2)}},
		},
	}

	p := New(cat, nil, nil)
	op, err := p.Plan(q)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if err := op.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer op.Close()

	var rows int
	for {
		_, ok, err := op.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		rows++
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows (both R tuples have second column 2), got %d", rows)
	}
}

func TestPlanCacheHit(t *testing.T) {
	dir := writeDB(t,
		map[string]string{"R": "1\n2\n"},
		[]string{"R int"},
	)
	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	q := atom.Query{
		Head: atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("x")}},
		Body: []atom.Atom{atom.RelationalAtom{Name: "R", Terms: []term.Term{v("x")}}},
	}

	cache := NewCache(10, 0)
	p := New(cat, nil, cache)

	if _, err := p.Plan(q); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, err := p.Plan(q); err != nil {
		t.Fatalf("Plan: %v", err)
	}

	hits, misses, size := cache.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Fatalf("expected 1 hit, 1 miss, 1 entry; got hits=%d misses=%d size=%d", hits, misses, size)
	}
}
