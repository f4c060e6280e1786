package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoDocuments means the folder holds no selectable PDF.
	ErrNoDocuments = errors.New("nenhum PDF encontrado na pasta de documentos")

	// ErrUnknownDocument means the requested name is not a listed PDF.
	ErrUnknownDocument = errors.New("documento não encontrado")
)

// ReadError wraps a failure to load or parse a selected document.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Document is a PDF loaded from the library. Content is not modified after Open.
type Document struct {
	Name    string
	Content []byte
}

// Page is one page of a Document, numbered from 1.
type Page struct {
	Number int
	Text   string
}

// Library is the folder of selectable documents.
type Library struct {
	Dir string
}

func NewLibrary(dir string) *Library {
	return &Library{Dir: dir}
}

// IsPDF reports whether a file name is selectable.
func IsPDF(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}

// List returns the PDF file names in the folder. The folder is read on every call.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.Dir, err)
	}

	var names []string
	for _, e := range entries {
		if !IsPDF(e.Name()) || l.isDir(e) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, ErrNoDocuments
	}
	return names, nil
}

// isDir reports whether e is a directory, following symlinks. A dangling link is
// listed and fails on Open.
func (l *Library) isDir(e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(filepath.Join(l.Dir, e.Name()))
	return err == nil && info.IsDir()
}

// Path resolves a listed document name to its location on disk.
func (l *Library) Path(name string) (string, error) {
	names, err := l.List()
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if n == name {
			return filepath.Join(l.Dir, n), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownDocument, name)
}

// Open reads a listed document from disk. Nothing is cached between calls.
func (l *Library) Open(name string) (*Document, error) {
	path, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}
	return &Document{Name: name, Content: data}, nil
}
