package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubProvider struct {
	name   string
	values map[string]string
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := s.values[ref]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{"secretref:env:ANON_KEY", "env", "ANON_KEY", true},
		{"secretref:file:/run/secrets/key", "file", "/run/secrets/key", true},
		{"secretref:vault:path:with:colons", "vault", "path:with:colons", true},
		{"secretref:env:", "", "", false},
		{"secretref::x", "", "", false},
		{"not-a-ref", "", "", false},
	}
	for _, tt := range tests {
		p, r, ok := ParseSecretRef(tt.in)
		if p != tt.provider || r != tt.ref || ok != tt.ok {
			t.Errorf("ParseSecretRef(%q) = %q, %q, %v", tt.in, p, r, ok)
		}
	}
}

func TestResolver(t *testing.T) {
	t.Setenv("VENDORA_TEST_PROJECT", "shop")
	r := NewResolver(stubProvider{name: "stub", values: map[string]string{"key": "s3cret", "empty": ""}})
	ctx := context.Background()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "https://example.com", "https://example.com", nil},
		{"whole ref", "secretref:stub:key", "s3cret", nil},
		{"inline refs", "Bearer secretref:stub:key and secretref:stub:key", "Bearer s3cret and s3cret", nil},
		{"env then ref", "secretref:stub:${VENDORA_TEST_KEYNAME}", "", ErrMissingEnv},
		{"unknown provider", "secretref:vault:key", "", ErrUnknownProvider},
		{"empty secret", "secretref:stub:empty", "", ErrEmptySecret},
		{"missing secret", "secretref:stub:nope", "", ErrSecretNotFound},
		{"env expansion", "https://${VENDORA_TEST_PROJECT}.supabase.co", "https://shop.supabase.co", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Resolve() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("VENDORA_TEST_SECRET", "abc")
	p := EnvProvider{}
	if v, err := p.Resolve(context.Background(), "VENDORA_TEST_SECRET"); err != nil || v != "abc" {
		t.Errorf("Resolve() = %q, %v", v, err)
	}
	if _, err := p.Resolve(context.Background(), "VENDORA_TEST_UNSET_SECRET"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Resolve(unset) error = %v", err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "anon_key"), []byte("  key-123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	rel := FileProvider{Dir: dir}
	if v, err := rel.Resolve(ctx, "anon_key"); err != nil || v != "key-123" {
		t.Errorf("Resolve(relative) = %q, %v", v, err)
	}
	abs := FileProvider{}
	if v, err := abs.Resolve(ctx, filepath.Join(dir, "anon_key")); err != nil || v != "key-123" {
		t.Errorf("Resolve(absolute) = %q, %v", v, err)
	}
	if _, err := rel.Resolve(ctx, "missing"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Resolve(missing) error = %v", err)
	}
}
