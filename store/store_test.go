package store

import (
	"context"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"testing"
)

// testStoreContract exercises the behavior every Store must share.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok || v != "" {
			t.Errorf("Get() = (%q, %v), want (\"\", false)", v, ok)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := s.Set(ctx, "p_a", "1"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := s.Get(ctx, "p_a")
		if err != nil || !ok || v != "1" {
			t.Errorf("Get() = (%q, %v, %v), want (\"1\", true, nil)", v, ok, err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		_ = s.Set(ctx, "p_a", "2")
		v, _, _ := s.Get(ctx, "p_a")
		if v != "2" {
			t.Errorf("Get() = %q, want 2", v)
		}
	})

	t.Run("keys by prefix", func(t *testing.T) {
		_ = s.Set(ctx, "p_b", "x")
		_ = s.Set(ctx, "other", "y")

		keys, err := s.Keys(ctx, "p_")
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		sort.Strings(keys)
		if strings.Join(keys, ",") != "p_a,p_b" {
			t.Errorf("Keys() = %v, want [p_a p_b]", keys)
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		if err := s.Remove(ctx, "p_a"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if err := s.Remove(ctx, "p_a"); err != nil {
			t.Fatalf("second Remove() error = %v", err)
		}
		if _, ok, _ := s.Get(ctx, "p_a"); ok {
			t.Error("key still present after Remove")
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if err := s.Set(ctx, "  ", "v"); err != ErrInvalidKey {
			t.Errorf("Set() error = %v, want %v", err, ErrInvalidKey)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "kv.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
}

func TestSQLiteStore_KeysIsLiteralPrefix(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, SQLiteConfig{Path: filepath.Join(t.TempDir(), "kv.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	for _, k := range []string{"a_b1", "axb2", "a%b3", "vendora_cache_x", "VENDORA_CACHE_y", "Vendora_cache_z"} {
		if err := s.Set(ctx, k, "v"); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"a_b", []string{"a_b1"}},
		{"a%", []string{"a%b3"}},
		{"vendora_cache_", []string{"vendora_cache_x"}},
		{"VENDORA_", []string{"VENDORA_CACHE_y"}},
	}
	for _, tt := range tests {
		keys, err := s.Keys(ctx, tt.prefix)
		if err != nil {
			t.Fatalf("Keys(%q) error = %v", tt.prefix, err)
		}
		sort.Strings(keys)
		if !slices.Equal(keys, tt.want) {
			t.Errorf("Keys(%q) = %v, want %v", tt.prefix, keys, tt.want)
		}
	}
}

func TestNewSQLiteStore_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLiteConfig
	}{
		{name: "empty path", cfg: SQLiteConfig{}},
		{name: "bad table", cfg: SQLiteConfig{Path: ":memory:", Table: "kv; DROP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSQLiteStore(context.Background(), tt.cfg); err == nil {
				t.Error("NewSQLiteStore() error = nil, want error")
			}
		})
	}
}

func TestBigCacheStore(t *testing.T) {
	s, err := NewBigCacheStore(context.Background(), BigCacheConfig{})
	if err != nil {
		t.Fatalf("NewBigCacheStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{key: "vendora_cache_products", want: nil},
		{key: "", want: ErrInvalidKey},
		{key: "a\nb", want: ErrInvalidKey},
		{key: strings.Repeat("k", MaxKeyLength+1), want: ErrKeyTooLong},
	}

	for _, tt := range tests {
		if got := ValidateKey(tt.key); got != tt.want {
			t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
