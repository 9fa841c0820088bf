// Package fileio is the host file boundary: input validation and reading,
// and the save-file collaborator that receives the exported document.
package fileio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotPDF    = errors.New("not a PDF file")
	ErrEmptyFile = errors.New("file is empty")
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

var pdfMagic = []byte("%PDF-")

// ValidatePDF checks the extension of name and the header bytes in head.
// head may be nil to check the name only.
func ValidatePDF(name string, head []byte) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, filepath.Base(name))
	}
	if head == nil {
		return nil
	}
	if len(head) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filepath.Base(name))
	}
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	if !bytes.Contains(head, pdfMagic) {
		return fmt.Errorf("%w: %s has no PDF header", ErrNotPDF, filepath.Base(name))
	}
	return nil
}

// ReadFile validates and reads a PDF from disk.
func ReadFile(path string) ([]byte, error) {
	if err := ValidatePDF(path, nil); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := ValidatePDF(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Read validates and reads a PDF from r.
func Read(name string, r io.Reader) ([]byte, error) {
	if err := ValidatePDF(name, nil); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := ValidatePDF(name, data); err != nil {
		return nil, err
	}
	return data, nil
}

// SaveRequest is what the document editor hands to the host.
type SaveRequest struct {
	FileName   string `json:"fileName"`
	Base64Data string `json:"base64Data"`
}

func NewSaveRequest(name string, data []byte) SaveRequest {
	return SaveRequest{FileName: name, Base64Data: base64.StdEncoding.EncodeToString(data)}
}

func (r SaveRequest) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.Base64Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.FileName, err)
	}
	return data, nil
}

// SaveResult is the host's answer. A cancelled dialog is not an error.
type SaveResult struct {
	Success  bool   `json:"success"`
	Canceled bool   `json:"canceled,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Host performs the actual disk write, usually behind a save dialog.
type Host interface {
	SavePDFFile(ctx context.Context, req SaveRequest) (SaveResult, error)
}

// Chooser asks the user for a destination. ok is false when cancelled.
type Chooser func(defaultName string) (path string, ok bool, err error)

// DiskHost writes into Dir, or wherever Choose points.
type DiskHost struct {
	Dir    string
	Choose Chooser
}

func (h DiskHost) SavePDFFile(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	name := filepath.Base(req.FileName)
	if name == "." || name == string(filepath.Separator) {
		return SaveResult{Message: "missing file name"}, nil
	}
	data, err := req.Decode()
	if err != nil {
		return SaveResult{Message: err.Error()}, nil
	}

	path := filepath.Join(h.Dir, name)
	if h.Choose != nil {
		chosen, ok, err := h.Choose(path)
		if err != nil {
			return SaveResult{Message: err.Error()}, nil
		}
		if !ok || chosen == "" {
			return SaveResult{Canceled: true, Message: "Save canceled"}, nil
		}
		path = chosen
	}

	if err := writeFileAtomic(path, data); err != nil {
		return SaveResult{Message: err.Error()}, nil
	}
	return SaveResult{Success: true, Path: path, Message: "Saved"}, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".redact-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	// CreateTemp makes the file owner-only.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
