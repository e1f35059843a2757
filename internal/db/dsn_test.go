package db

import (
	"strings"
	"testing"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  'postgres://u:p@localhost:5432/garage'  ", "postgres://u:p@localhost:5432/garage"},
		{"host=localhost   user=garage dbname=garage", "host=localhost user=garage dbname=garage sslmode=disable"},
		{"host=db user=g dbname=g sslmode=require", "host=db user=g dbname=g sslmode=require"},
		{"not a dsn", "not a dsn"},
	}
	for _, tt := range tests {
		if got := NormalizeDSN(tt.in); got != tt.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	got := SQLiteDSN("data/car_management.db")
	if !strings.HasPrefix(got, "file:data/car_management.db?") {
		t.Fatalf("unexpected dsn %q", got)
	}
	if !strings.Contains(got, "_foreign_keys=1") {
		t.Fatalf("foreign keys not enabled: %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=db user=g password=secret dbname=g"); strings.Contains(got, "secret") {
		t.Fatalf("password leaked: %q", got)
	}
	if got := MaskDSN("postgres://g:secret@db/g"); strings.Contains(got, "secret") {
		t.Fatalf("password leaked: %q", got)
	}
}
