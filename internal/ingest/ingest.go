// Package ingest finds the documents to process under a root folder and
// fingerprints them.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the document file extension, matched case-insensitively.
const Extension = ".docx"

// lockPrefix marks the owner files Word leaves next to open documents.
const lockPrefix = "~$"

// IsDocument reports whether name has the document extension and is not a
// Word lock file.
func IsDocument(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension) && !strings.HasPrefix(name, lockPrefix)
}

// Discover returns every document below root, sorted by path.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsDocument(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// HashFile returns the hex SHA-256 of the file's bytes, or "" when the file
// cannot be read.
func HashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RelPath returns path relative to root with forward slashes.
func RelPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
