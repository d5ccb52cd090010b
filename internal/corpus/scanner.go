// Package corpus finds the policy documents that make up the clause index.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"policy-rag/internal/clause"
)

// File is a policy document found under the corpus root.
type File struct {
	RelPath string // slash-separated path from the corpus root, e.g. "travel/旅平險.txt"
	AbsPath string
}

// Scanner walks a corpus directory.
type Scanner struct {
	root string
}

// NewScanner creates a Scanner for root, which must be an existing directory.
func NewScanner(root string) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve corpus path %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access corpus path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", abs)
	}
	return &Scanner{root: abs}, nil
}

// Root returns the absolute corpus root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns every supported document under the root in lexical order.
// Hidden files and directories are skipped.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	var files []File

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		hidden := path != s.root && strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || !clause.Supported(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		files = append(files, File{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan corpus %s: %w", s.root, err)
	}

	return files, nil
}

// Read returns the content of f and its SHA-256 hex digest.
func (s *Scanner) Read(f File) ([]byte, string, error) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file %s: %w", f.AbsPath, err)
	}
	return content, Hash(content), nil
}

// Hash returns the SHA-256 hex digest of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
