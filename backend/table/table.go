// Package table holds schema-fixed CSV tables stored as whole files.
//
// A table is loaded completely, mutated in memory and saved back in full.
// There is no append path: every save rewrites the header and all rows.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Record is one row keyed by column name.
type Record map[string]string

// Schema names a table and fixes its column order.
type Schema struct {
	ID      string
	Columns []string
}

var (
	HabitsSchema = Schema{
		ID:      "habits.csv",
		Columns: []string{"name", "points", "archived", "creation_date"},
	}
	CompletionsSchema = Schema{
		ID:      "completed.csv",
		Columns: []string{"date", "name"},
	}
	ProgressSchema = Schema{
		ID:      "progress_log.csv",
		Columns: []string{"date", "earned_points", "possible_points"},
	}
	GoalsSchema = Schema{
		ID:      "goals.csv",
		Columns: []string{"name", "status", "deadline", "points"},
	}
)

// Schemas returns the four stored tables in lock order.
func Schemas() []Schema {
	return []Schema{HabitsSchema, CompletionsSchema, ProgressSchema, GoalsSchema}
}

// DecodeError reports a table whose bytes do not match its schema.
type DecodeError struct {
	Table string
	Line  int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decode %s line %d: %v", e.Table, e.Line, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Table, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses CSV bytes into records. Empty input decodes to no records.
func Decode(schema Schema, data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &DecodeError{Table: schema.ID, Line: 1, Err: err}
	}
	if !slices.Equal(header, schema.Columns) {
		return nil, &DecodeError{
			Table: schema.ID,
			Line:  1,
			Err:   fmt.Errorf("header %v does not match columns %v", header, schema.Columns),
		}
	}

	records := []Record{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Table: schema.ID, Err: err}
		}
		line, _ := r.FieldPos(0)
		if len(row) != len(schema.Columns) {
			return nil, &DecodeError{
				Table: schema.ID,
				Line:  line,
				Err:   fmt.Errorf("expected %d fields, got %d", len(schema.Columns), len(row)),
			}
		}
		rec := make(Record, len(row))
		for i, col := range schema.Columns {
			rec[col] = row[i]
		}
		records = append(records, rec)
	}

	return records, nil
}

// Encode writes the header and every record. Missing columns encode as
// empty fields. Rows use the excel dialect of Python's csv module, which
// quotes only fields holding a comma, a quote or a line break.
func Encode(schema Schema, records []Record) ([]byte, error) {
	var buf bytes.Buffer
	writeRow(&buf, schema.Columns)

	row := make([]string, len(schema.Columns))
	for _, rec := range records {
		for i, col := range schema.Columns {
			row[i] = rec[col]
		}
		writeRow(&buf, row)
	}
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !strings.ContainsAny(field, ",\"\r\n") {
			buf.WriteString(field)
			continue
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}

// Table binds a schema to the medium holding its bytes.
type Table struct {
	Schema Schema
	Medium Medium
}

// New creates a table over medium.
func New(schema Schema, medium Medium) *Table {
	return &Table{Schema: schema, Medium: medium}
}

// Load reads and decodes the whole table. An absent medium loads as empty.
func (t *Table) Load() ([]Record, error) {
	data, err := t.Medium.Read()
	if errors.Is(err, ErrAbsent) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Schema.ID, err)
	}
	return Decode(t.Schema, data)
}

// Save replaces the medium content with the encoded records and returns
// the bytes written.
func (t *Table) Save(records []Record) ([]byte, error) {
	data, err := Encode(t.Schema, records)
	if err != nil {
		return nil, err
	}
	if err := t.Medium.Write(data); err != nil {
		return nil, fmt.Errorf("write %s: %w", t.Schema.ID, err)
	}
	return data, nil
}
