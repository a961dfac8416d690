// Package mapfile loads whole instrument files into memory, mapping them
// read-only where the platform allows.
package mapfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var (
	ErrTooLarge = errors.New("file too large to address")
	ErrNotFile  = errors.New("not a regular file")
)

// File is an immutable view of a file's bytes.
type File struct {
	Name    string
	Data    []byte
	mmapped bool
}

// Mapped reports whether Data is backed by a memory mapping.
func (f *File) Mapped() bool { return f.mmapped }

// Close releases the mapping, if any. Data must not be used afterwards.
func (f *File) Close() error {
	if f == nil || !f.mmapped || f.Data == nil {
		return nil
	}
	err := unix.Munmap(f.Data)
	f.Data = nil
	f.mmapped = false
	return err
}

// Open maps path read-only. If mmap is unavailable it falls back to reading
// the file with ReadAt. Empty files are returned with empty Data.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFile)
	}
	size, err := checkSize(stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if size == 0 {
		return &File{Name: path, Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Name: path, Data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &File{Name: path, Data: data}, nil
}

// FromReaderAt loads size bytes from r without mapping.
func FromReaderAt(name string, r io.ReaderAt, size int64) (*File, error) {
	n, err := checkSize(size)
	if err != nil {
		return nil, err
	}
	data, err := readAllAt(r, n)
	if err != nil {
		return nil, err
	}
	return &File{Name: name, Data: data}, nil
}

// FromReader reads at most limit bytes from r. A stream longer than limit is
// rejected rather than truncated.
func FromReader(name string, r io.Reader, limit int64) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w: more than %d bytes", name, ErrTooLarge, limit)
	}
	return &File{Name: name, Data: data}, nil
}

func checkSize(size int64) (int, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return 0, ErrTooLarge
	}
	return int(size), nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Probe reads only the head and tail of path, enough for detection without
// loading the whole file.
func Probe(path string, n int) (head, tail []byte, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer func() { _ = f.Close() }()
	stat, err := f.Stat()
	if err != nil {
		return nil, nil, 0, err
	}
	size = stat.Size()
	k := int(min(int64(n), size))
	head = make([]byte, k)
	if _, err := f.ReadAt(head, 0); err != nil && err != io.EOF {
		return nil, nil, 0, err
	}
	tail = make([]byte, k)
	if _, err := f.ReadAt(tail, size-int64(k)); err != nil && err != io.EOF {
		return nil, nil, 0, err
	}
	return head, tail, size, nil
}
