// Package gobs handles saving and loading whole objects using the gob encoding.
// Dictionaries, feature tables and network parameters are all persisted
// through it.
package gobs

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/fs"

	"github.com/golangast/nlpnet/internal/nerror"
)

// Save encodes v into filePath, creating parent directories if needed.
func Save(filePath string, v any) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filePath, err)
	}
	return file.Close()
}

// Load decodes filePath into v. A file that does not exist is reported
// as a nerror.MissingResourceError labelled with resource.
func Load(filePath, resource string, v any) error {
	isFile, err := fs.IsFile(filePath)
	if err != nil || !isFile {
		if err == nil {
			err = os.ErrNotExist
		}
		return nerror.MissingResourceError{Resource: resource, Path: filePath, Err: err}
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nerror.MissingResourceError{Resource: resource, Path: filePath, Err: err}
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s from %s: %w", resource, filePath, err)
	}
	return nil
}

// DeleteGobFile removes a saved object. Removing a file that does not
// exist is not an error.
func DeleteGobFile(filePath string) error {
	err := os.Remove(filePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete gob file %s: %w", filePath, err)
	}
	return nil
}
