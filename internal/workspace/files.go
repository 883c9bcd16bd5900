// Package workspace manages the run's working directory: cleaning it,
// listing its files and tracking what changes between iterations.
package workspace

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile holds gitignore-style patterns excluded from listings.
const IgnoreFile = ".mdrunignore"

// MaxListed caps the listing embedded in prompts.
const MaxListed = 200

// DefaultIgnorePatterns are skipped in every workspace.
var DefaultIgnorePatterns = []string{
	".git",
	"__pycache__",
	"node_modules",
	".venv",
	IgnoreFile,
}

// Clean removes dir and recreates it empty.
func Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

// Matcher compiles the default patterns, the workspace's ignore file and extra.
func Matcher(dir string, extra ...string) gitignore.IgnoreParser {
	patterns := append([]string{}, DefaultIgnorePatterns...)
	patterns = append(patterns, extra...)
	if lines, err := readIgnoreLines(filepath.Join(dir, IgnoreFile)); err == nil {
		patterns = append(patterns, lines...)
	}
	return gitignore.CompileIgnoreLines(patterns...)
}

func readIgnoreLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, s.Err()
}

// ListFiles returns the slash-separated paths of all regular files under dir,
// relative to dir, in lexical order.
func ListFiles(dir string) ([]string, error) {
	ignore := Matcher(dir)
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ignore.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

// Listing formats files for a prompt.
func Listing(files []string) string {
	if len(files) == 0 {
		return "No files in workspace"
	}
	if len(files) > MaxListed {
		more := len(files) - MaxListed
		return strings.Join(files[:MaxListed], "\n") + fmt.Sprintf("\n... and %d more", more)
	}
	return strings.Join(files, "\n")
}
