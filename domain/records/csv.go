package records

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrNoRecords is returned when exporting an empty table.
var ErrNoRecords = errors.New("records: nothing to export")

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	csvHeader = []string{"客户昵称", "订单号", "商家", "创建时间"}
)

// WriteCSV writes entries with a UTF-8 BOM so spreadsheet tools pick the
// right encoding.
func WriteCSV(w io.Writer, entries []Entry) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Nickname, e.OrderNumber, e.Merchant, e.CreatedAt.Format(TimeLayout)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV. Times are read in the local
// zone; the BOM is optional. Parsed entries carry no ID.
func ReadCSV(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(csvHeader)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("records: read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, h := range csvHeader {
		if rows[0][i] != h {
			return nil, fmt.Errorf("records: unexpected header %q", rows[0])
		}
	}
	out := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		ts, err := time.ParseInLocation(TimeLayout, row[3], time.Local)
		if err != nil {
			return nil, fmt.Errorf("records: row %d: %w", i+2, err)
		}
		out = append(out, Entry{Nickname: row[0], OrderNumber: row[1], Merchant: row[2], CreatedAt: ts})
	}
	return out, nil
}

// ExportFile writes the table to path, creating parent directories.
func (s *Store) ExportFile(path string) error {
	entries := s.All()
	if len(entries) == 0 {
		return ErrNoRecords
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("records: export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("records.export", "path", path, "count", len(entries))
	}
	return nil
}
