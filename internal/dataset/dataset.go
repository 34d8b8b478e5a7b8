// Package dataset loads logged driving data from a folder of delimited
// text files. Every file is one contiguous recording segment; tap windows
// and one-step-ahead targets never cross a file boundary.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoFiles indicates a dataset folder without a single data file.
var ErrNoFiles = errors.New("dataset: no data files in folder")

// Segment is one contiguous recording: the rows of a single file, split
// into one series per schema column.
type Segment struct {
	Name   string
	Series map[string][]float64
}

// Len returns the number of samples in the segment.
func (s *Segment) Len() int {
	for _, col := range s.Series {
		return len(col)
	}
	return 0
}

// Dataset is an ordered collection of segments sharing one column schema.
type Dataset struct {
	Columns  []string
	Segments []Segment
}

// LoadFolder reads every regular file in dir as one segment, in lexical
// file-name order. columns gives the field order in each row; delim is the
// field separator. A leading row whose first field does not parse as a
// number is treated as a header and skipped. Every remaining row must have
// exactly len(columns) numeric fields.
func LoadFolder(dir string, columns []string, delim rune) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.New("dataset: empty column schema")
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, errors.New("dataset: blank column name in schema")
		}
		if seen[c] {
			return nil, fmt.Errorf("dataset: duplicate column %q in schema", c)
		}
		seen[c] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, dir)
	}

	ds := &Dataset{Columns: append([]string(nil), columns...)}
	for _, name := range names {
		seg, err := loadFile(filepath.Join(dir, name), columns, delim)
		if err != nil {
			return nil, err
		}
		seg.Name = name
		ds.Segments = append(ds.Segments, seg)
	}
	return ds, nil
}

// LoadFile reads a single log file as one segment. Same row rules as
// LoadFolder; the segment is named after the file.
func LoadFile(path string, columns []string, delim rune) (Segment, error) {
	seg, err := loadFile(path, columns, delim)
	if err != nil {
		return Segment{}, err
	}
	seg.Name = filepath.Base(path)
	return seg, nil
}

func loadFile(path string, columns []string, delim rune) (Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return Segment{}, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comma = delim
	r.FieldsPerRecord = len(columns)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return Segment{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return Segment{}, fmt.Errorf("%s: no data rows", path)
	}

	series := make(map[string][]float64, len(columns))
	for _, c := range columns {
		series[c] = make([]float64, len(records))
	}
	for i, rec := range records {
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Segment{}, fmt.Errorf("%s: row %d, column %s: %w", path, i+1, columns[j], err)
			}
			series[columns[j]][i] = v
		}
	}
	return Segment{Series: series}, nil
}

// Len returns the total number of samples across all segments.
func (d *Dataset) Len() int {
	n := 0
	for i := range d.Segments {
		n += d.Segments[i].Len()
	}
	return n
}

// ColumnStats summarizes one column across every segment.
type ColumnStats struct {
	Name    string
	Samples int
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
}

// Summary computes per-column statistics over the whole dataset, in schema
// order.
func (d *Dataset) Summary() []ColumnStats {
	out := make([]ColumnStats, 0, len(d.Columns))
	for _, c := range d.Columns {
		var all []float64
		for i := range d.Segments {
			all = append(all, d.Segments[i].Series[c]...)
		}
		cs := ColumnStats{Name: c, Samples: len(all)}
		if len(all) > 0 {
			cs.Mean = stat.Mean(all, nil)
			cs.Std = stat.StdDev(all, nil)
			cs.Min = floats.Min(all)
			cs.Max = floats.Max(all)
		}
		out = append(out, cs)
	}
	return out
}
