package mapfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.dat")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	want := bytes.Repeat([]byte{1, 2, 3, 4, 5}, 1000)
	f, err := Open(writeTemp(t, want))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()
	if !bytes.Equal(f.Data, want) {
		t.Fatalf("data mismatch: got %d bytes want %d", len(f.Data), len(want))
	}
}

func TestOpenEmpty(t *testing.T) {
	t.Parallel()

	f, err := Open(writeTemp(t, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(f.Data) != 0 || f.Mapped() {
		t.Fatalf("empty file: %d bytes mapped=%v", len(f.Data), f.Mapped())
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenRejectsDirectory(t *testing.T) {
	t.Parallel()

	if _, err := Open(t.TempDir()); !errors.Is(err, ErrNotFile) {
		t.Fatalf("got %v want ErrNotFile", err)
	}
}

func TestFromReaderAt(t *testing.T) {
	t.Parallel()

	want := []byte("UK SOFT\r\npayload")
	f, err := FromReaderAt("mem", bytes.NewReader(want), int64(len(want)))
	if err != nil {
		t.Fatalf("from reader at: %v", err)
	}
	if f.Mapped() || !bytes.Equal(f.Data, want) {
		t.Fatalf("got %q mapped=%v", f.Data, f.Mapped())
	}
	if _, err := FromReaderAt("mem", bytes.NewReader(want), int64(len(want))+1); err == nil {
		t.Fatal("expected error reading past end")
	}
}

func TestFromReaderLimit(t *testing.T) {
	t.Parallel()

	if _, err := FromReader("up", strings.NewReader("12345"), 5); err != nil {
		t.Fatalf("at limit: %v", err)
	}
	if _, err := FromReader("up", strings.NewReader("123456"), 5); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("over limit: got %v", err)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	data := make([]byte, 10000)
	data[0], data[len(data)-1] = 'H', 'T'
	head, tail, size, err := Probe(writeTemp(t, data), 4096)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if size != 10000 || len(head) != 4096 || len(tail) != 4096 || head[0] != 'H' || tail[4095] != 'T' {
		t.Fatalf("probe: size %d head %d tail %d", size, len(head), len(tail))
	}

	head, tail, size, err = Probe(writeTemp(t, []byte("ab")), 4096)
	if err != nil || size != 2 || string(head) != "ab" || string(tail) != "ab" {
		t.Fatalf("small probe: %q %q %d %v", head, tail, size, err)
	}
}
