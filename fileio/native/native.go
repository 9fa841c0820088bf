// Package native opens the operating system's save dialog for fileio.DiskHost.
package native

import (
	"errors"
	"path/filepath"

	"github.com/sqweek/dialog"

	"github.com/wudi/redactkit/fileio"
)

// SaveDialog returns a chooser that shows a native "save as" dialog
// starting at the proposed path, filtered to PDF files.
func SaveDialog(title string) fileio.Chooser {
	return func(defaultPath string) (string, bool, error) {
		path, err := dialog.File().
			Title(title).
			Filter("PDF files", "pdf").
			SetStartDir(filepath.Dir(defaultPath)).
			SetStartFile(filepath.Base(defaultPath)).
			Save()
		if errors.Is(err, dialog.ErrCancelled) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	}
}
