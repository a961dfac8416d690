package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/spmio/pkg/formats"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "log_level: debug\nserver_address: 0.0.0.0:9000\nmax_upload_bytes: 1024\nname_only: true\nexport_format: gsf\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" || cfg.ExportFormat != "gsf" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.MaxUploadBytes == nil || *cfg.MaxUploadBytes != 1024 || cfg.NameOnly == nil || !*cfg.NameOnly {
		t.Fatalf("pointer fields: %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("explicit missing config should fail")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("log_level: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatal("malformed config should fail")
	}
}

// runServeFlags parses args against a command carrying the serve flags and
// returns what applyServeConfig resolved.
func runServeFlags(t *testing.T, cfg Config, args ...string) (string, int64) {
	t.Helper()
	var (
		addr      string
		maxUpload int64
	)
	cmd := &cli.Command{
		Name: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8080", Destination: &addr},
			&cli.Int64Flag{Name: "max-upload", Value: 10, Destination: &maxUpload},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			applyServeConfig(c, cfg, &addr, &maxUpload)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"serve"}, args...)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return addr, maxUpload
}

func TestApplyServeConfig(t *testing.T) {
	t.Parallel()

	n := int64(2048)
	cfg := Config{ServerAddress: "0.0.0.0:9000", MaxUploadBytes: &n}

	addr, maxUpload := runServeFlags(t, cfg)
	if addr != "0.0.0.0:9000" || maxUpload != 2048 {
		t.Fatalf("config defaults: %s %d", addr, maxUpload)
	}
	addr, maxUpload = runServeFlags(t, cfg, "--addr", ":1234", "--max-upload", "7")
	if addr != ":1234" || maxUpload != 7 {
		t.Fatalf("flags should win: %s %d", addr, maxUpload)
	}
	addr, maxUpload = runServeFlags(t, Config{})
	if addr != "127.0.0.1:8080" || maxUpload != 10 {
		t.Fatalf("built-in defaults: %s %d", addr, maxUpload)
	}
}

func TestFormatQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    float64
		unit string
		want string
	}{
		{5e-6, "m", "5 µm"},
		{1.5e-9, "m", "1.5 nm"},
		{2500, "V", "2.5 kV"},
		{0, "m", "0 m"},
		{12.5, "deg", "12.5 deg"},
		{0.25, "", "0.25"},
		{3e-20, "A", "3e-05 fA"},
	}
	for _, tc := range tests {
		if got := formatQuantity(tc.v, tc.unit); got != tc.want {
			t.Errorf("formatQuantity(%g, %q): got %q want %q", tc.v, tc.unit, got, tc.want)
		}
	}
}

func TestPrintFormats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printFormats(&buf, formats.All())
	out := buf.String()
	for _, want := range []string{"ape", "hitachi-afm-old", ".bcrf", "7 format(s)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
