// Package granthfile loads the bulk scripture text file consumed once at
// startup. The file is one corpus line per text line, UTF-8, in mixed NFC/NFD
// form depending on how it was digitised; the loader recomposes every line to
// NFC so downstream comparison forms are stable.
package granthfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/banilabs/banitrack/pkg/corpus"
)

// minLineRunes filters out stray delimiter fragments and page artifacts.
// Real corpus lines are always longer.
const minLineRunes = 6

// Load reads the corpus file at path and returns its library.
func Load(path string) (*corpus.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("granthfile: open %q: %w", path, err)
	}
	defer f.Close()

	lib, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("granthfile: read %q: %w", path, err)
	}
	return lib, nil
}

// LoadFromReader reads corpus lines from r. Blank lines, lines shorter than
// a few runes, and lines that are only verse delimiters are skipped.
func LoadFromReader(r io.Reader) (*corpus.Library, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var raws []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "॥") {
			continue
		}
		line = norm.NFC.String(line)
		if utf8.RuneCountInString(line) < minLineRunes {
			continue
		}
		raws = append(raws, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}

	return corpus.NewLibrary(raws), nil
}
