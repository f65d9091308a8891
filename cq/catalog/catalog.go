// Package catalog resolves a schema descriptor file into the relation
// name -> (column types, CSV path) mapping consumed by cq/operator's
// Scan. The Catalog is read-only after construction and is a plain
// value owned by the runtime rather than a singleton, shared by every
// Scan built from it.
package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cqlang/cq-engine/cq/cqerr"
)

// ColumnType is the declared type of one column of a relation.
type ColumnType uint8

const (
	Int ColumnType = iota
	Str
)

func (c ColumnType) String() string {
	if c == Str {
		return "string"
	}
	return "int"
}

// ParseColumnType maps a schema-file type token to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "int":
		return Int, nil
	case "string":
		return Str, nil
	default:
		return 0, cqerr.New(cqerr.ErrCatalog, fmt.Sprintf("unknown column type %q", s))
	}
}

// RelationalSchema describes one relation: its name, its ordered column
// types, and the CSV file holding its data.
type RelationalSchema struct {
	Name        string
	ColumnTypes []ColumnType
	CSVPath     string
}

// Arity is the number of columns declared for the relation.
func (s RelationalSchema) Arity() int { return len(s.ColumnTypes) }

// Catalog maps relation names to their resolved schema. It is
// immutable once built by Load.
type Catalog struct {
	relations map[string]RelationalSchema
}

// Relation looks up a relation's schema by name.
func (c *Catalog) Relation(name string) (RelationalSchema, bool) {
	s, ok := c.relations[name]
	return s, ok
}

// Names returns the known relation names, in no particular order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.relations))
	for name := range c.relations {
		out = append(out, name)
	}
	return out
}

// Load reads "<databaseDir>/schema.txt" and resolves each declared
// relation's CSV path to "<databaseDir>/files/<name>.csv".
//
// Each schema line has the form "<name> <type1> <type2> ...". Blank
// lines are skipped. A malformed line or an unknown type name is a
// Catalog error.
func Load(databaseDir string) (*Catalog, error) {
	schemaPath := filepath.Join(databaseDir, "schema.txt")
	f, err := os.Open(schemaPath)
	if err != nil {
		return nil, cqerr.Wrap(cqerr.ErrCatalog, fmt.Sprintf("opening %s", schemaPath), err)
	}
	defer f.Close()

	// Resolve to an absolute path so CSVPath is a stable, collision-free
	// ScanCache key across two database directories that share a
	// relative prefix or a relation name.
	absDatabaseDir, err := filepath.Abs(databaseDir)
	if err != nil {
		return nil, cqerr.Wrap(cqerr.ErrCatalog, fmt.Sprintf("resolving %s", databaseDir), err)
	}

	relations := make(map[string]RelationalSchema)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, cqerr.New(cqerr.ErrCatalog,
				fmt.Sprintf("schema.txt:%d: expected \"<name> <type>...\", got %q", lineNo, line))
		}

		name := fields[0]
		columnTypes := make([]ColumnType, 0, len(fields)-1)
		for _, typeTok := range fields[1:] {
			ct, err := ParseColumnType(typeTok)
			if err != nil {
				return nil, cqerr.Wrap(cqerr.ErrCatalog, fmt.Sprintf("schema.txt:%d", lineNo), err)
			}
			columnTypes = append(columnTypes, ct)
		}

		relations[name] = RelationalSchema{
			Name:        name,
			ColumnTypes: columnTypes,
			CSVPath:     filepath.Join(absDatabaseDir, "files", name+".csv"),
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("reading %s", schemaPath), err)
	}

	return &Catalog{relations: relations}, nil
}
