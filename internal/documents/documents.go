package documents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose text cannot be extracted.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Document is an extracted plain text with its position in upload order.
type Document struct {
	Index int
	Path  string
	Text  string
}

type extractor func(path string) (string, error)

var extractors = map[string]extractor{
	"":          readPlain,
	".txt":      readPlain,
	".text":     readPlain,
	".md":       readPlain,
	".markdown": readPlain,
	".html":     readHTML,
	".htm":      readHTML,
}

// Load reads documents from files and directories in the given order.
// Directory entries with supported extensions are taken in lexical order; hidden files are skipped.
func Load(paths []string) ([]Document, error) {
	var files []string
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		expanded, err := listDir(path)
		if err != nil {
			return nil, err
		}
		files = append(files, expanded...)
	}

	docs := make([]Document, 0, len(files))
	for i, file := range files {
		text, err := Extract(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Index: i, Path: file, Text: text})
	}

	return docs, nil
}

// Extract returns the plain text of a single file.
func Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := extractors[ext]
	if !ok {
		hint := ""
		if ext == ".pdf" {
			hint = " (convert PDF files to text first)"
		}
		return "", fmt.Errorf("%w %q: %s%s", ErrUnsupportedFormat, ext, path, hint)
	}

	text, err := extract(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, nil
}

// Texts returns document texts in order.
func Texts(docs []Document) []string {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	return texts
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			continue
		}
		if _, ok := extractors[ext]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}

	sort.Strings(files)
	return files, nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
