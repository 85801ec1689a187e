package records

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the creation-time format used for display, search and CSV.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultPageSize is used by Page when size is not positive.
const DefaultPageSize = 10

// Entry is one captured customer record.
type Entry struct {
	ID          string
	Nickname    string
	OrderNumber string
	Merchant    string
	CreatedAt   time.Time
}

// Column identifies a sortable table column.
type Column string

const (
	ColumnNickname    Column = "nickname"
	ColumnOrderNumber Column = "order_number"
	ColumnMerchant    Column = "merchant"
	ColumnCreatedAt   Column = "created_at"
)

// ErrUnknownColumn is returned by ParseColumn.
var ErrUnknownColumn = errors.New("records: unknown column")

// ParseColumn accepts a column key or its CSV header label.
func ParseColumn(name string) (Column, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, c := range csvColumns {
		if name == string(c) || name == csvHeader[i] {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

var csvColumns = [...]Column{ColumnNickname, ColumnOrderNumber, ColumnMerchant, ColumnCreatedAt}

// Store is the in-memory record table. Entries are kept newest first until
// Sort reorders them. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore returns an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{now: time.Now, logger: logger}
}

// Append stamps a new entry and puts it at the top of the table. CRLF line
// breaks inside values are stored as LF, which is what CSV preserves.
func (s *Store) Append(nickname, merchant, orderNumber string) Entry {
	e := Entry{
		ID:          uuid.NewString(),
		Nickname:    normalizeNewlines(nickname),
		OrderNumber: normalizeNewlines(orderNumber),
		Merchant:    normalizeNewlines(merchant),
		CreatedAt:   s.now().Truncate(time.Second),
	}
	s.mu.Lock()
	s.entries = append([]Entry{e}, s.entries...)
	n := len(s.entries)
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("records.append", "id", e.ID, "order_number", e.OrderNumber, "count", n)
	}
	return e
}

func normalizeNewlines(v string) string {
	return strings.ReplaceAll(v, "\r\n", "\n")
}

// Load replaces the table with entries, as returned by ReadCSV.
func (s *Store) Load(entries []Entry) {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	s.mu.Lock()
	s.entries = cp
	s.mu.Unlock()
}

// All returns a copy of the table in its current order.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("records.clear", "dropped", n)
	}
}

// Search returns entries with term in any column, ignoring case.
// An empty term matches everything.
func (s *Store) Search(term string) []Entry {
	term = strings.ToLower(strings.TrimSpace(term))
	all := s.All()
	if term == "" {
		return all
	}
	out := all[:0]
	for _, e := range all {
		if e.matches(term) {
			out = append(out, e)
		}
	}
	return out
}

func (e Entry) matches(lower string) bool {
	for _, v := range []string{e.Nickname, e.OrderNumber, e.Merchant, e.CreatedAt.Format(TimeLayout)} {
		if strings.Contains(strings.ToLower(v), lower) {
			return true
		}
	}
	return false
}

// Sort reorders the table by column. Ties keep their current order.
// Unknown columns leave the table unchanged.
func (s *Store) Sort(column Column, desc bool) {
	less, ok := lessFuncs[column]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.entries, func(i, j int) bool {
		if desc {
			return less(s.entries[j], s.entries[i])
		}
		return less(s.entries[i], s.entries[j])
	})
}

var lessFuncs = map[Column]func(a, b Entry) bool{
	ColumnNickname:    func(a, b Entry) bool { return a.Nickname < b.Nickname },
	ColumnOrderNumber: func(a, b Entry) bool { return a.OrderNumber < b.OrderNumber },
	ColumnMerchant:    func(a, b Entry) bool { return a.Merchant < b.Merchant },
	ColumnCreatedAt:   func(a, b Entry) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

// Page slices entries into pages of size (DefaultPageSize when size <= 0).
// page is 1-based and clamped to [1, totalPages]; totalPages is at least 1.
func Page(entries []Entry, page, size int) (items []Entry, totalPages int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages = (len(entries) + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * size
	if start >= len(entries) {
		return nil, totalPages
	}
	end := start + size
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], totalPages
}
