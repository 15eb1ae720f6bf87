package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rpmconf.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
frontend = "vimdiff"
exclude = ["/var/lib/mock", "/srv/chroots"]
selinux = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Frontend != "vimdiff" {
		t.Errorf("Frontend = %q, want %q", cfg.Frontend, "vimdiff")
	}
	if want := []string{"/var/lib/mock", "/srv/chroots"}; !reflect.DeepEqual(cfg.Exclude, want) {
		t.Errorf("Exclude = %v, want %v", cfg.Exclude, want)
	}
	if !cfg.SELinux {
		t.Error("SELinux should be true")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `fronted = "vimdiff"`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Fatalf("err = %v, want unknown-keys", err)
	}
	if !strings.Contains(err.Error(), "fronted") {
		t.Errorf("error should name the offending key: %v", err)
	}
}

func TestLoadRejectsUnknownFrontend(t *testing.T) {
	path := writeConfig(t, `frontend = "emacs"`)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown frontend") {
		t.Fatalf("err = %v, want unknown-frontend", err)
	}
}

func TestLoadRejectsBadSyntax(t *testing.T) {
	path := writeConfig(t, `frontend = [unclosed`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("LoadOrDefault: %v", err)
		}
		if cfg.Frontend != "" || len(cfg.Exclude) != 0 || cfg.SELinux {
			t.Errorf("want zero-value config, got %+v", cfg)
		}
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		path := writeConfig(t, `frontend = "sdiff"`)
		cfg, err := LoadOrDefault(path)
		if err != nil {
			t.Fatalf("LoadOrDefault: %v", err)
		}
		if cfg.Frontend != "sdiff" {
			t.Errorf("Frontend = %q, want %q", cfg.Frontend, "sdiff")
		}
	})

	t.Run("broken existing file still fails", func(t *testing.T) {
		path := writeConfig(t, `selinux = "not a bool"`)
		if _, err := LoadOrDefault(path); err == nil {
			t.Fatal("expected type error")
		}
	})
}
