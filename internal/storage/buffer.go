package storage

import (
	"fmt"

	"github.com/IshaanNene/critterdex/internal/types"
)

// tableBuffer holds the pending writes of the backends that cannot keep a
// native transaction open across a run. Tables keep the order in which they
// were reset; names are unique per table, compared exactly as SQLite's
// TEXT PRIMARY KEY compares them.
type tableBuffer struct {
	order []string
	rows  map[string][]*types.Record
	names map[string]map[string]struct{}
}

func newTableBuffer() *tableBuffer {
	b := &tableBuffer{}
	b.clear()
	return b
}

func (b *tableBuffer) reset(table string) {
	if _, ok := b.rows[table]; !ok {
		b.order = append(b.order, table)
	}
	b.rows[table] = []*types.Record{}
	b.names[table] = make(map[string]struct{})
}

func (b *tableBuffer) add(table string, rec *types.Record) error {
	names, ok := b.names[table]
	if !ok {
		return fmt.Errorf("table %s was not reset in this transaction: %w", table, types.ErrNotFound)
	}
	if _, dup := names[rec.Name]; dup {
		return fmt.Errorf("%s: name %q: %w", table, rec.Name, types.ErrDuplicate)
	}
	names[rec.Name] = struct{}{}
	cp := *rec
	b.rows[table] = append(b.rows[table], &cp)
	return nil
}

func (b *tableBuffer) tables() []string {
	return b.order
}

func (b *tableBuffer) records(table string) []*types.Record {
	return b.rows[table]
}

func (b *tableBuffer) pending() int {
	n := 0
	for _, rows := range b.rows {
		n += len(rows)
	}
	return n
}

func (b *tableBuffer) clear() {
	b.order = nil
	b.rows = make(map[string][]*types.Record)
	b.names = make(map[string]map[string]struct{})
}
