// Package runtime implements the two external entry points:
// Minimize (reads a textual CQ, writes its minimized form) and Evaluate
// (reads a schema + query against a database directory, writes result
// tuples). It is the thin layer that wires cq/parser, cq/core,
// cq/planner, cq/catalog, and cq/operator together and drains the root
// operator to a file.
package runtime

import (
	"fmt"
	"os"
	"time"

	"github.com/cqlang/cq-engine/cq/annotations"
	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/catalog"
	"github.com/cqlang/cq-engine/cq/core"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/parser"
	"github.com/cqlang/cq-engine/cq/planner"
)

// Options configures the two entry points beyond their required
// arguments: an optional annotation Handler for -verbose tracing (§6's
// CLI is the only caller that sets this), and an optional on-disk
// ScanCache path for repeated-scan memoization (§4.4's planner cache
// note, generalized to Scan).
type Options struct {
	Handler       annotations.Handler
	ScanCachePath string
}

// Minimize reads a single query from inputPath, computes its core via
// cq/core.Minimize, and writes the result in the same textual form to
// outputPath.
func Minimize(inputPath, outputPath string, opts Options) error {
	collector := annotations.NewCollector(opts.Handler)

	text, err := os.ReadFile(inputPath)
	if err != nil {
		return cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("reading %s", inputPath), err)
	}

	q, err := parser.Parse(string(text))
	if err != nil {
		return err
	}

	start := time.Now()
	collector.Add(annotations.Event{Name: annotations.MinimizeBegin, Data: map[string]interface{}{
		"atoms": len(q.RelationalBody()),
	}})

	minimized := core.Minimize(q)

	collector.AddTiming(annotations.MinimizeComplete, start, map[string]interface{}{
		"atoms": len(minimized.RelationalBody()),
	})

	if err := os.WriteFile(outputPath, []byte(minimized.String()+"\n"), 0o644); err != nil {
		return cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("writing %s", outputPath), err)
	}
	return nil
}

// Evaluate reads the catalog at databaseDir, the query at queryPath,
// plans and runs it, and writes the result tuples to outputPath (§6).
func Evaluate(databaseDir, queryPath, outputPath string, opts Options) error {
	collector := annotations.NewCollector(opts.Handler)

	cat, err := catalog.Load(databaseDir)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(queryPath)
	if err != nil {
		return cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("reading %s", queryPath), err)
	}
	q, err := parser.Parse(string(text))
	if err != nil {
		return err
	}

	var scanCache *catalog.ScanCache
	if opts.ScanCachePath != "" {
		scanCache, err = catalog.OpenScanCache(opts.ScanCachePath)
		if err != nil {
			return cqerr.Wrap(cqerr.ErrIO, "opening scan cache", err)
		}
		defer scanCache.Close()
	}

	start := time.Now()
	collector.Add(annotations.Event{Name: annotations.QueryBegin, Data: map[string]interface{}{
		"query": q.String(),
	}})

	p := planner.New(cat, scanCache, planner.NewCache(0, 0))
	root, err := p.Plan(q)
	if err != nil {
		collector.AddTiming(annotations.QueryComplete, start, map[string]interface{}{"success": false, "error": err})
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("creating %s", outputPath), err)
	}
	defer out.Close()

	if err := root.Open(); err != nil {
		return err
	}
	defer root.Close()

	counting := &lineCountingWriter{w: out}
	if err := root.Dump(counting); err != nil {
		collector.AddTiming(annotations.QueryComplete, start, map[string]interface{}{"success": false, "error": err})
		return err
	}

	collector.AddTiming(annotations.QueryComplete, start, map[string]interface{}{
		"success": true,
		"tuples":  counting.lines,
	})
	return nil
}

// lineCountingWriter wraps an io.Writer, counting newline-terminated
// lines written through it so Evaluate can report a tuple count in its
// QueryComplete annotation without buffering the output a second time
// (Dump writes each tuple to the output file as the root yields it).
type lineCountingWriter struct {
	w     *os.File
	lines int
}

func (c *lineCountingWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			c.lines++
		}
	}
	return c.w.Write(p)
}

// Preview plans and runs the query at queryPath against databaseDir the
// same way Evaluate does, but returns the materialized result tuples
// and head variable names instead of writing them to a file. It is used
// by cmd/cq's -verbose mode to render a tabular preview
// (github.com/olekukonko/tablewriter) before the flat output file is
// written by a subsequent Evaluate call.
func Preview(databaseDir, queryPath string, opts Options, limit int) (headers []string, rows [][]string, err error) {
	cat, err := catalog.Load(databaseDir)
	if err != nil {
		return nil, nil, err
	}

	text, err := os.ReadFile(queryPath)
	if err != nil {
		return nil, nil, cqerr.Wrap(cqerr.ErrIO, fmt.Sprintf("reading %s", queryPath), err)
	}
	q, err := parser.Parse(string(text))
	if err != nil {
		return nil, nil, err
	}

	var scanCache *catalog.ScanCache
	if opts.ScanCachePath != "" {
		scanCache, err = catalog.OpenScanCache(opts.ScanCachePath)
		if err != nil {
			return nil, nil, cqerr.Wrap(cqerr.ErrIO, "opening scan cache", err)
		}
		defer scanCache.Close()
	}

	p := planner.New(cat, scanCache, planner.NewCache(0, 0))
	root, err := p.Plan(q)
	if err != nil {
		return nil, nil, err
	}
	if err := root.Open(); err != nil {
		return nil, nil, err
	}
	defer root.Close()

	headers = headColumnLabels(q)
	for limit <= 0 || len(rows) < limit {
		t, ok, nerr := root.Next()
		if nerr != nil {
			return headers, rows, nerr
		}
		if !ok {
			break
		}
		row := make([]string, len(t))
		for i, v := range t {
			row[i] = v.String()
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// headColumnLabels names the output columns: the head's plain terms in
// order, plus "sum" as a trailing column when the head carries a
// SumAggregate (§4.9: "group tuple followed by the sum in final
// position").
func headColumnLabels(q atom.Query) []string {
	labels := make([]string, 0, len(q.Head.Terms)+1)
	for _, t := range q.Head.Terms {
		labels = append(labels, t.String())
	}
	if q.Head.SumAggregate != nil {
		labels = append(labels, "sum")
	}
	return labels
}
