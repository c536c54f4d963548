package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if cfg.Store.Backend != want.Store.Backend || cfg.Scale != want.Scale || cfg.IO != want.IO {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.toml", `
scale = 12
author = "merch team"

[store]
backend = "sqlite"
sqlite_path = "/tmp/p.db"

[io]
save_timeout = "3s"
retry_attempts = 5
`)
	t.Setenv("PLANOGRAM_AUTHOR", "ops")
	t.Setenv("PLANOGRAM_SERVER_ADDR", ":9090")
	t.Setenv("PLANOGRAM_LOAD_TIMEOUT", "750ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"scale from file", cfg.Scale, 12.0},
		{"author from env", cfg.Author, "ops"},
		{"backend from file", cfg.Store.Backend, BackendSQLite},
		{"sqlite path from file", cfg.Store.SQLitePath, "/tmp/p.db"},
		{"addr from env", cfg.Server.Addr, ":9090"},
		{"save timeout from file", cfg.IO.SaveTimeout, 3 * time.Second},
		{"load timeout from env", cfg.IO.LoadTimeout, 750 * time.Millisecond},
		{"retry attempts from file", cfg.IO.RetryAttempts, 5},
		{"retry delay default", cfg.IO.RetryDelay, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{name: "unknown backend", content: "[store]\nbackend = \"etcd\"", want: "unknown backend"},
		{name: "redis without url", content: "[store]\nbackend = \"redis\"", want: "redis_url"},
		{name: "mongo without uri", content: "[store]\nbackend = \"mongo\"", want: "mongo_uri"},
		{name: "bad scale", content: "scale = -1", want: "scale"},
		{name: "zero attempts", content: "[io]\nretry_attempts = 0", want: "retry_attempts"},
		{name: "malformed toml", content: "scale = ", want: "read config"},
		{name: "bad env", content: "", env: map[string]string{"PLANOGRAM_SCALE": "wide"}, want: "parse env:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, "config.toml", tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() should fail when an explicit file is missing")
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	if got, _ := DefaultPath(); got != filepath.Join("/cfg", "planogram", "config.toml") {
		t.Errorf("DefaultPath() = %q", got)
	}

	cfg := Default()
	cfg.Store.Dir = "/data"
	if got, _ := cfg.SQLitePath(); got != filepath.Join("/data", "planogram.db") {
		t.Errorf("SQLitePath() = %q", got)
	}
	cfg.Store.SQLitePath = "/elsewhere.db"
	if got, _ := cfg.SQLitePath(); got != "/elsewhere.db" {
		t.Errorf("SQLitePath() = %q, want explicit path", got)
	}
}

func TestLoadTemplate(t *testing.T) {
	path := writeFile(t, "gondola.toml", `
name = "4ft gondola"

[[section]]
id = "bay-1"
width = 48
height = 72
header_height = 4
row_offset = 2
rows = [10, 12]

[[section]]
id = "bay-2"
width = 48
height = 72
rows = [20]
`)
	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate() error: %v", err)
	}
	specs := tmpl.SectionSpecs()
	if len(specs) != 2 {
		t.Fatalf("SectionSpecs() len = %d, want 2", len(specs))
	}
	if specs[0].ID != "bay-1" || specs[0].HeaderHeight != 4 || len(specs[0].Rows) != 2 || specs[0].Rows[1].Height != 12 {
		t.Errorf("specs[0] = %+v", specs[0])
	}
	if specs[1].Rows[0].ID != "" {
		t.Error("row ids should be left for the session to generate")
	}
}

func TestLoadTemplate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no sections", `name = "empty"`, "no sections"},
		{"unknown key", "[[section]]\nid = \"a\"\ndepth = 3", "unknown key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTemplate(writeFile(t, "t.toml", tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadTemplate() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
