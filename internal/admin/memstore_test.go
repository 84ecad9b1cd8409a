package admin

import (
	"context"
	"strconv"

	"github.com/frigidsec/ctfadmin/internal/store"
)

// memStore is an in-memory store.Store with per-operation failure injection.
type memStore struct {
	records []store.Challenge
	nextID  int
	fail    map[string]error
	closed  bool
}

func newMemStore(records ...store.Challenge) *memStore {
	return &memStore{records: records, nextID: len(records) + 1, fail: map[string]error{}}
}

func matches(c store.Challenge, f store.Filter) bool {
	return (f.Name != "" && c.Name == f.Name) || (f.FlagHash != "" && c.FlagHash == f.FlagHash)
}

func (m *memStore) Exists(_ context.Context, f store.Filter) (bool, error) {
	if err := m.fail["exists"]; err != nil {
		return false, &store.Error{Op: "exists", Err: err}
	}
	for _, c := range m.records {
		if matches(c, f) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindOne(_ context.Context, f store.Filter) (*store.Challenge, error) {
	if err := m.fail["find one"]; err != nil {
		return nil, &store.Error{Op: "find one", Err: err}
	}
	for _, c := range m.records {
		if matches(c, f) {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) FindAll(_ context.Context) ([]store.Challenge, error) {
	if err := m.fail["find all"]; err != nil {
		return nil, &store.Error{Op: "find all", Err: err}
	}
	return append([]store.Challenge(nil), m.records...), nil
}

func (m *memStore) Insert(_ context.Context, c *store.Challenge) (string, error) {
	if err := m.fail["insert"]; err != nil {
		return "", &store.Error{Op: "insert", Err: err}
	}
	c.ID = strconv.Itoa(m.nextID)
	m.nextID++
	m.records = append(m.records, *c)
	return c.ID, nil
}

func (m *memStore) DeleteOne(_ context.Context, f store.Filter) (int64, error) {
	if err := m.fail["delete"]; err != nil {
		return 0, &store.Error{Op: "delete", Err: err}
	}
	for i, c := range m.records {
		if matches(c, f) {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) Close(_ context.Context) error {
	m.closed = true
	return nil
}
