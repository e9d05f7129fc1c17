package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/vendora/backend"
	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/resilience"
	"github.com/jonwraymond/vendora/session"
	"github.com/jonwraymond/vendora/store"
)

// fakeRest is an in-memory PostgREST supporting eq and in filters, a
// single order column, inserts and deletes.
type fakeRest struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	fail   map[string]int
	calls  map[string]int
}

func newFakeRest() *fakeRest {
	return &fakeRest{
		tables: make(map[string][]map[string]any),
		fail:   make(map[string]int),
		calls:  make(map[string]int),
	}
}

func (f *fakeRest) seed(table string, rows ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], rows...)
}

func (f *fakeRest) failNext(table string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[table] = n
}

func (f *fakeRest) callCount(method, table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+table]
}

func (f *fakeRest) rows(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.tables[table]...)
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[r.Method+" "+table]++
	if f.fail[table] > 0 {
		f.fail[table]--
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "upstream unavailable"})
		return
	}

	q := r.URL.Query()
	switch r.Method {
	case http.MethodGet:
		var out []map[string]any
		for _, row := range f.tables[table] {
			if matches(row, q) {
				out = append(out, project(row, q.Get("select")))
			}
		}
		if order := q.Get("order"); order != "" {
			col, dir, _ := strings.Cut(strings.Split(order, ",")[0], ".")
			sort.SliceStable(out, func(i, j int) bool {
				a, b := fmt.Sprint(out[i][col]), fmt.Sprint(out[j][col])
				if dir == "desc" {
					return a > b
				}
				return a < b
			})
		}
		if out == nil {
			out = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var raw json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		var rows []map[string]any
		if json.Unmarshal(raw, &rows) != nil {
			var one map[string]any
			_ = json.Unmarshal(raw, &one)
			rows = []map[string]any{one}
		}
		for _, row := range rows {
			if _, ok := row["id"]; !ok {
				row["id"] = fmt.Sprintf("%s-%d", table, len(f.tables[table])+1)
			}
			if _, ok := row["created_at"]; !ok {
				row["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
			}
			f.tables[table] = append(f.tables[table], row)
		}
		if r.Header.Get("Prefer") == "return=representation" {
			writeJSON(w, http.StatusCreated, rows)
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodDelete:
		kept := f.tables[table][:0]
		for _, row := range f.tables[table] {
			if !matches(row, q) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func matches(row map[string]any, q map[string][]string) bool {
	for col, filters := range q {
		if col == "select" || col == "order" || col == "limit" {
			continue
		}
		got := fmt.Sprint(row[col])
		for _, f := range filters {
			switch {
			case strings.HasPrefix(f, "eq."):
				if got != strings.TrimPrefix(f, "eq.") {
					return false
				}
			case strings.HasPrefix(f, "in.("):
				list := strings.TrimSuffix(strings.TrimPrefix(f, "in.("), ")")
				found := false
				for _, v := range strings.Split(list, ",") {
					if strings.Trim(v, `"`) == got {
						found = true
					}
				}
				if !found {
					return false
				}
			}
		}
	}
	return true
}

func project(row map[string]any, sel string) map[string]any {
	if sel == "" || sel == "*" {
		return row
	}
	out := make(map[string]any)
	for _, col := range strings.Split(sel, ",") {
		out[col] = row[col]
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	rest    *fakeRest
	store   *store.MemoryStore
	cache   *cache.Cache
	catalog *Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rest := newFakeRest()
	srv := httptest.NewServer(rest)
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(backend.Config{URL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()
	c, err := cache.New(st)
	if err != nil {
		t.Fatal(err)
	}
	cat, err := New(Config{
		Client: client,
		Cache:  c,
		Store:  st,
		Retry:  &resilience.RetryPolicy{Retries: 2, Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{rest: rest, store: st, cache: c, catalog: cat}
}

func as(role, id string) context.Context {
	return session.WithUser(context.Background(), &session.UserProfile{ID: id, Role: role})
}
