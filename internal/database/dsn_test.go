package database

import (
	"strings"
	"testing"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "studio", Name: "studio"})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	expected := "host=localhost port=5432 user=studio dbname=studio TimeZone=UTC sslmode=disable"
	if dsn != expected {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		Host:     "db",
		Port:     6543,
		User:     "studio",
		Password: "secret",
		Name:     "classes",
		Options:  map[string]string{"sslmode": "require"},
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !containsAll(dsn, []string{"host=db", "port=6543", "password=secret", "dbname=classes", "sslmode=require"}) {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestBuildPostgresDSNRequiresUser(t *testing.T) {
	if _, err := buildPostgresDSN(Config{Name: "studio"}); err == nil {
		t.Fatal("expected error when user is missing")
	}
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "studio", Name: "studio"})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !strings.HasPrefix(dsn, "studio@tcp(127.0.0.1:3306)/studio?") {
		t.Fatalf("unexpected dsn prefix: %s", dsn)
	}
	if !containsAll(dsn, []string{"parseTime=true", "charset=utf8mb4"}) {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestBuildMySQLDSNEscapesPassword(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "studio", Password: "p@ss:word", Name: "studio", Host: "db", Port: 3307})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}
	if !strings.HasPrefix(dsn, "studio:p@ss:word@tcp(db:3307)/studio?") {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestDialectorForDriverAliases(t *testing.T) {
	for _, driver := range []string{"", "SQLite", "postgresql", "mysql"} {
		if _, err := dialectorFor(Config{Driver: driver, User: "u", Name: "n"}); err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
	}
}

func TestBuildMySQLDSNOverride(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{DSN: "custom"})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}
	if dsn != "custom" {
		t.Fatalf("expected override dsn, got %s", dsn)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
