package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Subdirectories of a content directory.
const (
	PostsDir   = "posts"
	ImagesDir  = "images"
	AuthorsDir = "authors"
	WorksDir   = "works"
)

// PostFile is one JSON file of posts, kept so generated fields can be
// written back to where they came from.
type PostFile struct {
	Path  string
	Posts []Post
}

// LoadDir reads a content directory laid out as posts/, images/, authors/
// and works/, each holding *.json files with either an array or a single
// record. Text posts come before image posts. Missing subdirectories are
// treated as empty.
func LoadDir(dir string) (*Set, error) {
	set := &Set{}

	for _, sub := range []string{PostsDir, ImagesDir} {
		files, err := LoadPostFiles(filepath.Join(dir, sub))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			set.Posts = append(set.Posts, f.Posts...)
		}
	}
	for i := range set.Posts {
		renderBody(&set.Posts[i])
	}

	if err := loadRecords(filepath.Join(dir, AuthorsDir), &set.Authors); err != nil {
		return nil, err
	}

	var works []Work
	if err := loadRecords(filepath.Join(dir, WorksDir), &works); err != nil {
		return nil, err
	}
	set.Works = dedupeWorks(works)

	return set, nil
}

// LoadPostFiles reads every *.json file in dir, sorted by name. Posts are
// returned as authored, so they can be written back unchanged apart from
// generated fields.
func LoadPostFiles(dir string) ([]PostFile, error) {
	paths, err := jsonFiles(dir)
	if err != nil {
		return nil, err
	}

	files := make([]PostFile, 0, len(paths))
	for _, path := range paths {
		f, err := ReadPostFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ReadPostFile reads a single post file.
func ReadPostFile(path string) (PostFile, error) {
	var posts []Post
	if err := decodeFile(path, &posts); err != nil {
		return PostFile{}, err
	}
	return PostFile{Path: path, Posts: posts}, nil
}

// WritePostFile writes posts back as indented JSON with a trailing newline.
func WritePostFile(f PostFile) error {
	data, err := json.MarshalIndent(f.Posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f.Path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to path, creating parent directories.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// loadRecords appends the records of every JSON file in dir to out, which
// must point to a slice.
func loadRecords[T any](dir string, out *[]T) error {
	paths, err := jsonFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		var records []T
		if err := decodeFile(path, &records); err != nil {
			return err
		}
		*out = append(*out, records...)
	}
	return nil
}

// decodeFile decodes a JSON array, or a single object as a one-element array.
func decodeFile[T any](path string, out *[]T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		*out = []T{one}
		return nil
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// dedupeWorks drops works without an id and keeps the last record for a
// repeated id, at the position of its first occurrence.
func dedupeWorks(works []Work) []Work {
	index := make(map[string]int, len(works))
	var out []Work
	for _, w := range works {
		if w.ID == "" {
			continue
		}
		if i, ok := index[w.ID]; ok {
			out[i] = w
			continue
		}
		index[w.ID] = len(out)
		out = append(out, w)
	}
	return out
}
