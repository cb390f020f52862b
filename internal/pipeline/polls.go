package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/TobiSchelling/folio/internal/content"
	"github.com/TobiSchelling/folio/internal/logging"
	"github.com/TobiSchelling/folio/internal/poll"
)

// PollFiles reports the outcome of a poll file operation.
type PollFiles struct {
	Files int
	Posts int
}

func loadPostFiles(dir string) ([]content.PostFile, error) {
	var files []content.PostFile
	for _, sub := range []string{content.PostsDir, content.ImagesDir} {
		fs, err := content.LoadPostFiles(filepath.Join(dir, sub))
		if err != nil {
			return nil, err
		}
		files = append(files, fs...)
	}
	return files, nil
}

// AddPolls writes generated polls into the post files of a content
// directory. The tag vocabulary spans every file, the same one a build uses,
// so a poll written here is the poll the build would generate. Posts that
// already carry a poll keep it unless regenerate is set. Files are rewritten
// only when a poll was added.
func AddPolls(dir string, regenerate bool) (*PollFiles, error) {
	files, err := loadPostFiles(dir)
	if err != nil {
		return nil, err
	}

	var all []content.Post
	for _, f := range files {
		all = append(all, f.Posts...)
	}
	vocab := poll.Vocabulary(all)

	r := &PollFiles{}
	for _, f := range files {
		changed := 0
		for _, p := range f.Posts {
			if p.Poll == nil || regenerate {
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		f.Posts = poll.Attach(f.Posts, vocab, regenerate)
		if err := content.WritePostFile(f); err != nil {
			return r, err
		}
		r.Files++
		r.Posts += changed
		logging.Debug().Str("file", f.Path).Int("polls", changed).Msg("wrote polls")
	}
	return r, nil
}

// ValidatePollFiles checks the poll of every post in a content directory and
// stops at the first malformed one. The error names the offending file and
// wraps the *poll.ShapeError.
func ValidatePollFiles(dir string) (*PollFiles, error) {
	files, err := loadPostFiles(dir)
	if err != nil {
		return nil, err
	}

	r := &PollFiles{Files: len(files)}
	for _, f := range files {
		n, err := poll.ValidateAll(f.Posts)
		r.Posts += n
		if err != nil {
			return r, fmt.Errorf("%s -> %w", filepath.Base(f.Path), err)
		}
	}
	return r, nil
}
