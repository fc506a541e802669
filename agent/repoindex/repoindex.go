// Package repoindex provides read-only discovery over the session's
// working directory: glob listing and content search, honoring the
// repository's .gitignore.
package repoindex

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	ignore "github.com/sabhiram/go-gitignore"
)

const maxSearchFileSize = 2 * 1024 * 1024 // 2MB

// Match is one content-search hit.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

type Index struct {
	root    string
	ignorer *ignore.GitIgnore
}

func New(root string) *Index {
	idx := &Index{root: root}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		idx.ignorer = gi
	}
	return idx
}

func (i *Index) skipped(rel string) bool {
	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return true
	}
	if i.ignorer != nil && i.ignorer.MatchesPath(rel) {
		return true
	}
	return false
}

// ListFiles returns working-directory-relative paths matching the glob
// pattern, e.g. "**/*.py". An empty pattern lists everything.
func (i *Index) ListFiles(pattern string) ([]string, error) {
	var mu sync.Mutex
	var files []string

	conf := fastwalk.Config{ToSlash: true}
	err := fastwalk.Walk(&conf, i.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(i.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if i.skipped(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if pattern != "" {
			ok, matchErr := doublestar.Match(pattern, rel)
			if matchErr != nil {
				return matchErr
			}
			if !ok {
				return nil
			}
		}
		mu.Lock()
		files = append(files, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// SearchContent scans text files under the working directory for lines
// containing term and returns up to limit matches.
func (i *Index) SearchContent(term string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 100
	}
	files, err := i.ListFiles("")
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, rel := range files {
		full := filepath.Join(i.root, rel)
		info, err := os.Stat(full)
		if err != nil || info.Size() > maxSearchFileSize {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		content := string(data)
		if !utf8.ValidString(content) {
			continue
		}
		for n, line := range strings.Split(content, "\n") {
			if strings.Contains(line, term) {
				matches = append(matches, Match{
					Path: rel,
					Line: n + 1,
					Text: strings.TrimSpace(line),
				})
				if len(matches) >= limit {
					return matches, nil
				}
			}
		}
	}
	return matches, nil
}
