// Package source loads invoices exported by the billing domain layer as JSON.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"recipes/pkg/models"
)

// Errors returned by the loader
var (
	ErrEmptyInvoice = errors.New("invoice document is empty")
	ErrNotDirectory = errors.New("path is not a directory")
	ErrOutputClash  = errors.New("invoice files map to the same output file")
)

// LoadError reports a file that could not be turned into an invoice.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Decode reads one invoice document from r. Unknown fields are rejected so
// that a renamed field in the export shows up as an error instead of an
// empty cell on the recipe.
func Decode(r io.Reader) (*models.Invoice, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var inv models.Invoice
	if err := dec.Decode(&inv); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInvoice
		}
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode invoice: trailing data after invoice document")
	}
	return &inv, nil
}

// LoadInvoice reads the invoice stored at path.
func LoadInvoice(path string) (*models.Invoice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	inv, err := Decode(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return inv, nil
}

// FindInvoiceFiles returns every .json file below dir in lexical order.
func FindInvoiceFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// OutputPath returns the PDF path for an invoice file written into outDir.
// An empty outDir keeps the PDF next to the invoice file.
func OutputPath(invoicePath, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(invoicePath), filepath.Ext(invoicePath)) + ".pdf"
	if outDir == "" {
		return filepath.Join(filepath.Dir(invoicePath), base)
	}
	return filepath.Join(outDir, base)
}

// MirrorPath is like OutputPath but keeps the folders between root and the
// invoice file below outDir, so invoices with the same name in different
// subfolders do not share an output file. Files outside root are written
// into outDir directly.
func MirrorPath(root, invoicePath, outDir string) string {
	if outDir == "" || root == "" {
		return OutputPath(invoicePath, outDir)
	}
	rel, err := filepath.Rel(root, filepath.Dir(invoicePath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return OutputPath(invoicePath, outDir)
	}
	return OutputPath(invoicePath, filepath.Join(outDir, rel))
}

// OutputPaths returns the MirrorPath of every file. It fails with
// ErrOutputClash when two files would be written to the same PDF, e.g.
// "a.json" and "a.JSON" in one folder.
func OutputPaths(root string, files []string, outDir string) ([]string, error) {
	outputs := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, f := range files {
		out := filepath.Clean(MirrorPath(root, f, outDir))
		key := strings.ToLower(out)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", ErrOutputClash, prev, f, out)
		}
		seen[key] = f
		outputs[i] = out
	}
	return outputs, nil
}
