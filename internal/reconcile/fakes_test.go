package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"wompi_webhook/internal/rollbase"
)

// rule answers every query containing all of match.
type rule struct {
	match []string
	rows  rollbase.Rows
	err   error
}

type createCall struct {
	obj    string
	fields map[string]any
}

type updateCall struct {
	obj    string
	id     string
	fields map[string]any
}

type fakeStore struct {
	mu        sync.Mutex
	rules     []rule
	queries   []string
	creates   []createCall
	updates   []updateCall
	createErr map[string]error
	updateErr error
	nextID    int
	// cancel, when set, is called at the start of every Create to simulate
	// the caller going away mid-write.
	cancel context.CancelFunc
}

func newFakeStore() *fakeStore {
	return &fakeStore{createErr: map[string]error{}}
}

func (f *fakeStore) on(rows rollbase.Rows, match ...string) *fakeStore {
	f.rules = append(f.rules, rule{match: match, rows: rows})
	return f
}

func (f *fakeStore) failOn(err error, match ...string) *fakeStore {
	f.rules = append(f.rules, rule{match: match, err: err})
	return f
}

func (f *fakeStore) Query(_ context.Context, sql string, _ int) (rollbase.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sql)
	for _, r := range f.rules {
		if containsAll(sql, r.match) {
			return r.rows, r.err
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(ctx context.Context, obj string, fields map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{obj: obj, fields: fields})
	if f.cancel != nil {
		f.cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := f.createErr[obj]; err != nil {
		return "", err
	}
	f.nextID++
	return fmt.Sprintf("S%d", f.nextID), nil
}

func (f *fakeStore) Update(_ context.Context, obj, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{obj: obj, id: id, fields: fields})
	return f.updateErr
}

// queriesContaining counts the queries that contain s.
func (f *fakeStore) queriesContaining(s string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, s) {
			n++
		}
	}
	return n
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

var errStoreDown = errors.New("store down")

// memGuard is an in-memory dedup.Guard.
type memGuard struct {
	mu       sync.Mutex
	claimed  map[string]bool
	err      error
	released []string
}

func newMemGuard() *memGuard {
	return &memGuard{claimed: map[string]bool{}}
}

func (g *memGuard) Claim(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.err != nil {
		return false, g.err
	}
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

func (g *memGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(g.claimed, key)
	g.released = append(g.released, key)
	return nil
}
