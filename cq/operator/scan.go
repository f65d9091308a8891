package operator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/catalog"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/term"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// Scan is a leaf operator reading one relation's CSV file, one line per
// Next call. Its labeled atom is a single RelationalAtom whose terms
// are distinct variables (post planner normalization).
type Scan struct {
	schema catalog.RelationalSchema
	rel    atom.RelationalAtom
	cache  *catalog.ScanCache

	file    *os.File
	scanner *bufio.Scanner

	cachedRows []string
	cacheIdx   int
	usingCache bool

	loadedRows []string // rows read this pass, stored in the cache when Next reaches EOF
}

// NewScan builds a Scan over schema, labeled with rel. cache may be nil
// (always read the file directly).
func NewScan(schema catalog.RelationalSchema, rel atom.RelationalAtom, cache *catalog.ScanCache) *Scan {
	return &Scan{schema: schema, rel: rel, cache: cache}
}

func (s *Scan) Atoms() []atom.RelationalAtom { return []atom.RelationalAtom{s.rel} }

// Open primes the scan: it tries the scan cache first, falling back to
// opening the CSV file directly on a miss.
func (s *Scan) Open() error {
	if rows, ok := s.cache.Rows(s.schema.CSVPath); ok {
		s.usingCache = true
		s.cachedRows = joinRows(rows)
		s.cacheIdx = 0
		return nil
	}

	f, err := os.Open(s.schema.CSVPath)
	if err != nil {
		return cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("opening %s", s.schema.CSVPath), err)
	}
	s.file = f
	s.scanner = bufio.NewScanner(f)
	s.loadedRows = nil
	return nil
}

func (s *Scan) Next() (tuple.Tuple, bool, error) {
	if s.usingCache {
		if s.cacheIdx >= len(s.cachedRows) {
			return nil, false, nil
		}
		line := s.cachedRows[s.cacheIdx]
		s.cacheIdx++
		return s.decodeLine(line)
	}

	if s.scanner == nil {
		return nil, false, nil
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, false, cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("reading %s", s.schema.CSVPath), err)
		}
		if s.cache != nil {
			_ = s.cache.Store(s.schema.CSVPath, splitRows(s.loadedRows))
		}
		return nil, false, nil
	}
	line := s.scanner.Text()
	s.loadedRows = append(s.loadedRows, line)
	return s.decodeLine(line)
}

func (s *Scan) decodeLine(line string) (tuple.Tuple, bool, error) {
	fields := splitCSVLine(line)
	if len(fields) != s.schema.Arity() {
		return nil, false, cqerr.New(cqerr.ErrTupleShape,
			fmt.Sprintf("%s: expected %d fields, got %d in %q", s.schema.Name, s.schema.Arity(), len(fields), line))
	}

	out := make(tuple.Tuple, len(fields))
	for i, field := range fields {
		switch s.schema.ColumnTypes[i] {
		case catalog.Int:
			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, false, cqerr.Wrap(cqerr.ErrTupleShape,
					fmt.Sprintf("%s: field %d (%q) is not an integer", s.schema.Name, i, field), err)
			}
			out[i] = term.IntConst{Value: n}
		case catalog.Str:
			out[i] = term.StrConst{Value: unquote(field)}
		}
	}
	return out, true, nil
}

// Reset reopens the file and rewinds to the first row (§4.5).
func (s *Scan) Reset() error {
	if err := s.Close(); err != nil {
		return err
	}
	return s.Open()
}

func (s *Scan) Close() error {
	s.usingCache = false
	s.cachedRows = nil
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		s.scanner = nil
		return err
	}
	return nil
}

func (s *Scan) Dump(w io.Writer) error {
	return dumpTuples(s, w)
}

// splitCSVLine splits a CSV line on commas, trimming surrounding
// whitespace from each field (§6).
func splitCSVLine(line string) []string {
	raw := strings.Split(line, ",")
	out := make([]string, len(raw))
	for i, f := range raw {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// unquote strips one pair of surrounding single quotes, if present.
func unquote(field string) string {
	if len(field) >= 2 && field[0] == '\'' && field[len(field)-1] == '\'' {
		return field[1 : len(field)-1]
	}
	return field
}

func joinRows(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.Join(r, ", ")
	}
	return out
}

func splitRows(lines []string) [][]string {
	out := make([][]string, len(lines))
	for i, l := range lines {
		out[i] = splitCSVLine(l)
	}
	return out
}
