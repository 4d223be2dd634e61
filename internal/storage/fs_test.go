package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/readlog/internal/apperr"
)

func tempDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDir(t)
	content := []byte("---\ntitle: Hello\n---\nWorld\n")
	if err := s.Write("hello.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("hello.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "content", "readings")
	s, err := NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := s.Write("a.md", []byte("a")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.md")); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestListMissingRoot(t *testing.T) {
	s, err := NewFS(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}

func TestListSortedFilesOnly(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("a.md", []byte("a"))
	_ = os.Mkdir(filepath.Join(s.Root(), "sub"), 0o755)

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a.md" || names[1] != "b.md" {
		t.Errorf("names = %v", names)
	}
}

func TestDelete(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read after delete err = %v, want not found", err)
	}
	if err := s.Delete("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want not found", err)
	}
}

func TestExists(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("x.md", []byte("x"))
	if ok, err := s.Exists("x.md"); err != nil || !ok {
		t.Errorf("Exists(x.md) = %v, %v", ok, err)
	}
	if ok, err := s.Exists("y.md"); err != nil || ok {
		t.Errorf("Exists(y.md) = %v, %v", ok, err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		"sub/inner.md",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrSecurity) {
			t.Errorf("Read(%q) err = %v, want security rejection", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "readlog-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
