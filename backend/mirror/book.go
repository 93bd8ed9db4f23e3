package mirror

import (
	"sort"
	"sync"
	"time"
)

// TableStatus is the sync state of one table.
type TableStatus struct {
	Table     string    `json:"table" yaml:"table"`
	Revision  string    `json:"revision" yaml:"revision"`
	LastPull  time.Time `json:"last_pull,omitempty" yaml:"last_pull,omitempty"`
	LastPush  time.Time `json:"last_push,omitempty" yaml:"last_push,omitempty"`
	LastError string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// RevisionBook remembers the last revision seen per table.
type RevisionBook interface {
	Revision(tableID string) (string, bool, error)
	SetRevision(tableID, revision string) error
	RecordSync(tableID string, direction Direction, syncErr error) error
	Status() ([]TableStatus, error)
}

// MemoryBook is a RevisionBook that lives for one process.
type MemoryBook struct {
	mu     sync.Mutex
	tables map[string]*TableStatus
	now    func() time.Time
}

func NewMemoryBook() *MemoryBook {
	return &MemoryBook{
		tables: make(map[string]*TableStatus),
		now:    time.Now,
	}
}

func (b *MemoryBook) entry(tableID string) *TableStatus {
	st, ok := b.tables[tableID]
	if !ok {
		st = &TableStatus{Table: tableID}
		b.tables[tableID] = st
	}
	return st
}

func (b *MemoryBook) Revision(tableID string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.tables[tableID]
	if !ok || st.Revision == "" {
		return "", false, nil
	}
	return st.Revision, true, nil
}

func (b *MemoryBook) SetRevision(tableID, revision string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entry(tableID).Revision = revision
	return nil
}

func (b *MemoryBook) RecordSync(tableID string, direction Direction, syncErr error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.entry(tableID)
	if syncErr != nil {
		st.LastError = syncErr.Error()
		return nil
	}
	st.LastError = ""
	switch direction {
	case DirectionPull:
		st.LastPull = b.now()
	case DirectionPush:
		st.LastPush = b.now()
	}
	return nil
}

func (b *MemoryBook) Status() ([]TableStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TableStatus, 0, len(b.tables))
	for _, st := range b.tables {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out, nil
}
