// Package ingest turns uploaded spreadsheets into table datasets.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// MaxUploadBytes is the largest file accepted for parsing.
const MaxUploadBytes = 10 << 20

var (
	// ErrUnsupported indicates a format is not supported.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrNoData is returned when a file has no header or no data rows.
	ErrNoData = errors.New("no valid data found in file")
	// ErrTooLarge is returned for inputs above MaxUploadBytes.
	ErrTooLarge = errors.New("file exceeds the 10 MiB limit")
)

// Options controls parsing.
type Options struct {
	// MaxRows limits rows kept; 0 means DefaultOptions().MaxRows.
	MaxRows int
	// Delimiter for CSV. If 0, it is sniffed from the header line.
	Delimiter rune
	// SheetName selects a workbook sheet by name.
	SheetName string
	// SheetIndex selects a workbook sheet by 1-based position when SheetName is empty.
	SheetIndex int
}

// DefaultOptions returns the standard parsing limits.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Parser converts file content into a dataset.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte, opt Options) (*table.Dataset, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(csvParser{})
	Register(tsvParser{})
	Register(xlsxParser{})
	Register(xlsParser{})
}

// Supported reports whether some parser accepts filename.
func Supported(filename string) bool {
	for _, p := range registry {
		if p.CanParse(filename) {
			return true
		}
	}
	return false
}

// ParseFile reads path and parses it with the matching parser.
func ParseFile(path string, opt Options) (*table.Dataset, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if fi.Size() > MaxUploadBytes {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseBytes(filepath.Base(path), data, opt)
}

// ParseBytes parses in-memory content; name selects the parser by extension.
func ParseBytes(name string, data []byte, opt Options) (*table.Dataset, error) {
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	if opt.MaxRows <= 0 {
		opt.MaxRows = DefaultOptions().MaxRows
	}
	for _, p := range registry {
		if p.CanParse(name) {
			ds, err := p.Parse(data, opt)
			if err != nil {
				return nil, err
			}
			ds.Name = name
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Ext(name), ErrUnsupported)
}

// build maps raw records onto a dataset. The first non-blank record is the
// header; blank headers are dropped but cells keep their original index.
func build(records [][]string, opt Options, convert func(header, raw string) table.Cell) (*table.Dataset, error) {
	start := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoData
	}
	type col struct {
		name string
		idx  int
	}
	var cols []col
	seen := map[string]int{}
	for i, h := range records[start] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		name := h
		for n := seen[h] + 1; seen[name] > 0; n++ {
			name = fmt.Sprintf("%s_%d", h, n)
		}
		if name != h {
			seen[h]++
		}
		seen[name]++
		cols = append(cols, col{name: name, idx: i})
	}
	if len(cols) == 0 {
		return nil, ErrNoData
	}
	ds := &table.Dataset{Columns: make([]string, len(cols))}
	for i, c := range cols {
		ds.Columns[i] = c.name
	}
	for _, rec := range records[start+1:] {
		if opt.MaxRows > 0 && len(ds.Rows) >= opt.MaxRows {
			break
		}
		r := make(table.Row, len(cols))
		for _, c := range cols {
			raw := ""
			if c.idx < len(rec) {
				raw = rec[c.idx]
			}
			r[c.name] = convert(c.name, raw)
		}
		if r.Blank() {
			continue
		}
		ds.Rows = append(ds.Rows, r)
	}
	if len(ds.Rows) == 0 {
		return nil, ErrNoData
	}
	return ds, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func inferCell(_ string, raw string) table.Cell { return table.Infer(raw) }
