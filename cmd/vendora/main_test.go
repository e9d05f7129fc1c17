package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/vendora/catalog"
	"github.com/jonwraymond/vendora/config"
	"github.com/jonwraymond/vendora/store"
)

// fakeBackend serves the handful of endpoints the CLI touches.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"GoTrue"}`))
	})
	mux.HandleFunc("GET /rest/v1/products", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "p1", "title": "iPhone 13 Pro Max", "price": "450,000", "category": "trading", "is_premium": true},
			{"id": "p2", "title": "House Cleaning", "price": 15000, "category": "catering"},
		})
	})
	mux.HandleFunc("GET /rest/v1/categories", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"trading","label":"Trading"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func isolateEnv(t *testing.T, backendURL string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("VENDORA_BACKEND_URL", backendURL)
	t.Setenv("VENDORA_BACKEND_ANON_KEY", "")
	if backendURL != "" {
		t.Setenv("VENDORA_BACKEND_ANON_KEY", "anon")
	}
	t.Setenv("VENDORA_RETRY_RETRIES", "0")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_CartOffline(t *testing.T) {
	isolateEnv(t, "")

	out, err := run(t, "--store", "memory", "cart")
	if err != nil {
		t.Fatalf("cart error = %v", err)
	}
	if !strings.Contains(out, "Total: ₦0") {
		t.Errorf("output = %q", out)
	}
}

func TestCLI_Products(t *testing.T) {
	srv := fakeBackend(t)
	isolateEnv(t, srv.URL)

	out, err := run(t, "--store", "memory", "products", "--category", "premium")
	if err != nil {
		t.Fatalf("products error = %v", err)
	}
	if !strings.Contains(out, "iPhone 13 Pro Max") || !strings.Contains(out, "₦450,000") {
		t.Errorf("output missing premium product:\n%s", out)
	}
	if strings.Contains(out, "House Cleaning") {
		t.Errorf("output includes a non-premium product:\n%s", out)
	}
}

func TestCLI_CacheClear(t *testing.T) {
	srv := fakeBackend(t)
	isolateEnv(t, srv.URL)
	dbPath := filepath.Join(t.TempDir(), "nested", "store.db")

	if _, err := run(t, "--store", "sqlite", "--store-path", dbPath, "products"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "--store", "sqlite", "--store-path", dbPath, "cache", "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1 cached entries") || !strings.Contains(out, "products") || !strings.Contains(out, "in ") {
		t.Errorf("status output = %q", out)
	}

	out, err = run(t, "--store", "sqlite", "--store-path", dbPath, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Removed 1 cached entries") {
		t.Errorf("output = %q", out)
	}
}

// slowAuthBackend answers the password grant at once but stalls session
// validation past the login timeout.
type slowAuthBackend struct {
	mu      sync.Mutex
	bearers []string
}

func (b *slowAuthBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "tok-ada",
			"refresh_token": "refresh-ada",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]any{"id": "u-ada", "email": "ada@example.com", "role": "authenticated"},
		})
	})
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-ada","email":"ada@example.com"}`))
	})
	mux.HandleFunc("GET /rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.bearers = append(b.bearers, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		b.mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (b *slowAuthBackend) profileBearers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bearers...)
}

func TestCLI_LoginSurvivesSlowSessionInstall(t *testing.T) {
	b := &slowAuthBackend{}
	srv := b.server(t)
	isolateEnv(t, srv.URL)
	t.Setenv("VENDORA_SESSION_LOGIN_TIMEOUT", "100ms")
	dbPath := filepath.Join(t.TempDir(), "store.db")

	out, err := run(t, "--store", "sqlite", "--store-path", dbPath, "login", "ada@example.com", "--password", "secret")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if out != "Signed in as ada (customer)\n" {
		t.Errorf("login output = %q", out)
	}

	out, err = run(t, "--store", "sqlite", "--store-path", dbPath, "whoami")
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if strings.Contains(out, "Not signed in") || !strings.Contains(out, "ada@example.com") {
		t.Errorf("whoami output = %q, want the signed-in user", out)
	}
	if !strings.Contains(out, "customer") {
		t.Errorf("whoami output = %q, want role customer", out)
	}

	bearers := b.profileBearers()
	if len(bearers) == 0 || bearers[len(bearers)-1] != "tok-ada" {
		t.Errorf("profile request bearers = %v, want the adopted access token", bearers)
	}
}

func TestCLI_OrdersRequiresSignIn(t *testing.T) {
	isolateEnv(t, "")
	if _, err := run(t, "--store", "memory", "orders"); err == nil {
		t.Error("orders succeeded without a session")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, config.StoreConfig{Kind: config.StoreMemory})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("memory kind opened %T", st)
	}

	path := filepath.Join(t.TempDir(), "a", "b", "store.db")
	st, err = openStore(ctx, config.StoreConfig{Kind: config.StoreSQLite, Path: path})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.(io.Closer).Close() })
	if err := st.Set(ctx, "k", "v"); err != nil {
		t.Errorf("Set() error = %v", err)
	}

	if _, err := openStore(ctx, config.StoreConfig{Kind: "etcd"}); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestRouter(t *testing.T) {
	srv := fakeBackend(t)
	isolateEnv(t, srv.URL)
	ctx := context.Background()

	cfg, err := config.Load(ctx, config.Options{})
	if err != nil {
		t.Fatal(err)
	}
	cfg.Store.Kind = config.StoreMemory
	a, err := newApp(ctx, cfg, appOptions{logOutput: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close(ctx) })
	h, err := a.router()
	if err != nil {
		t.Fatal(err)
	}

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/readyz"); rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("/readyz = %d %q", rec.Code, rec.Body.String())
	}

	rec := get("/api/products?search=clean")
	var products []catalog.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode products: %v (%s)", err, rec.Body.String())
	}
	if len(products) != 1 || products[0].ID != "p2" {
		t.Errorf("/api/products = %+v", products)
	}

	if rec := get("/api/products/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("/api/products/nope = %d", rec.Code)
	}

	if rec := get("/metrics"); !strings.Contains(rec.Body.String(), "vendora_health_status") {
		t.Error("/metrics lacks health gauges")
	}
}

func TestWriteCart(t *testing.T) {
	var buf bytes.Buffer
	lines := []catalog.CartLine{{Product: catalog.Product{ID: "p2", Title: "House Cleaning", Price: 15000}, Quantity: 2}}
	if err := writeCart(&buf, lines, 30000); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"House Cleaning", "₦30,000", "Total: ₦30,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
