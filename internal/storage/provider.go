// Package storage defines the flat file-system abstraction that backs a
// content directory (one directory, one file per record, no index).
package storage

// Provider is the interface for content directory operations.
// All names are plain filenames relative to the directory root.
type Provider interface {
	// Root returns the absolute path of the directory.
	Root() string
	// List returns the names of the regular files directly in the root,
	// sorted. A root that does not exist yet yields an empty list.
	List() ([]string, error)
	// Exists reports whether name is present.
	Exists(name string) (bool, error)
	// Read returns the raw bytes of name.
	Read(name string) ([]byte, error)
	// Write replaces the whole content of name, creating the root if needed.
	Write(name string, content []byte) error
	// Delete removes name.
	Delete(name string) error
}
