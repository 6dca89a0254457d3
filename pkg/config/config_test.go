package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type serverConf struct {
	Addr    string        `default:":8080"`
	Timeout time.Duration `default:"5s"`
}

func TestNewReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("CONCIERGE_ADDR", ":9090")

	conf, err := New[serverConf]("CONCIERGE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Addr != ":9090" {
		t.Fatalf("Addr = %q, want :9090", conf.Addr)
	}
	if conf.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want default 5s", conf.Timeout)
	}
}

func TestExportEnvironmentPrefersProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_A=fromfile\nCFGTEST_B=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_A", "fromenv")
	t.Setenv("CFGTEST_B", "")
	os.Unsetenv("CFGTEST_B")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGTEST_A"); got != "fromenv" {
		t.Fatalf("CFGTEST_A = %q, process environment must win", got)
	}
	if got := os.Getenv("CFGTEST_B"); got != "fromfile" {
		t.Fatalf("CFGTEST_B = %q, want value from file", got)
	}
}
