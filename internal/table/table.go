// Package table persists feature vectors as a comma-separated table and reads
// them back.
//
// Every row is written with the same fixed header, model.TableColumns. Parse
// error rows are zero-filled with parse_error=1, so rows from one file never
// disagree on their columns.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atikulmunna/logsift/internal/model"
)

var (
	// ErrNoData signals that there were no rows to write. Nothing was written.
	ErrNoData = errors.New("table: no rows to write")

	// ErrSchemaMismatch is returned when a row does not line up with the header.
	ErrSchemaMismatch = errors.New("table: row does not match header")
)

// Writer streams feature vectors to an underlying io.Writer.
// The header is emitted together with the first row.
type Writer struct {
	csv  *csv.Writer
	rows int
	cell []string
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		csv:  csv.NewWriter(w),
		cell: make([]string, len(model.TableColumns)),
	}
}

// Write appends one row.
func (w *Writer) Write(v model.FeatureVector) error {
	if w.rows == 0 {
		if err := w.csv.Write(model.TableColumns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, name := range model.TableColumns {
		n, _ := v.Column(name)
		w.cell[i] = strconv.Itoa(n)
	}
	if err := w.csv.Write(w.cell); err != nil {
		return fmt.Errorf("writing row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Flush writes buffered data and reports any write error.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Rows returns how many data rows have been written.
func (w *Writer) Rows() int {
	return w.rows
}

// Write writes a complete table. An empty rows slice writes nothing and
// returns ErrNoData.
func Write(dst io.Writer, rows []model.FeatureVector) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	w := NewWriter(dst)
	for _, v := range rows {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteFile writes rows to path. No file is created when rows is empty.
func WriteFile(path string, rows []model.FeatureVector) (err error) {
	if len(rows) == 0 {
		return ErrNoData
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, rows)
}

// Read reads a table into string-valued rows keyed by header names.
// Values are returned verbatim; use Cell or Decode to convert them.
func Read(src io.Reader) ([]map[string]string, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header = append([]string(nil), header...)

	var rows []map[string]string
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d cells, header has %d", ErrSchemaMismatch, line, len(rec), len(header))
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			row[name] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile reads a table from path.
func ReadFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Cell returns the integer value of a column. A missing or empty cell counts
// as 0.
func Cell(row map[string]string, name string) (int, error) {
	s, ok := row[name]
	if !ok || s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return n, nil
}

// Decode converts a row back into a FeatureVector.
func Decode(row map[string]string) (model.FeatureVector, error) {
	var v model.FeatureVector
	dst := []*int{&v.FailedLogin, &v.AdminUser, &v.ExternalIP, &v.LevelInfo, &v.LevelWarn, &v.LevelError}

	for i, name := range model.FeatureNames {
		n, err := Cell(row, name)
		if err != nil {
			return model.FeatureVector{}, err
		}
		*dst[i] = n
	}

	pe, err := Cell(row, model.FeatureParseError)
	if err != nil {
		return model.FeatureVector{}, err
	}
	if pe != 0 {
		return model.FeatureVector{ParseError: true}, nil
	}
	return v, nil
}

// DecodeAll converts every row, stopping at the first bad one.
func DecodeAll(rows []map[string]string) ([]model.FeatureVector, error) {
	out := make([]model.FeatureVector, 0, len(rows))
	for i, row := range rows {
		v, err := Decode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}
