package vocab

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry pairs a vocabulary term with its definition.
type Entry struct {
	Term       string
	Definition string
}

// Build creates a case-insensitive lookup from term entries. The canonical
// key is the lower-cased term; on duplicate terms the last entry wins.
func Build(entries []Entry) map[string]string {
	index := make(map[string]string, len(entries))
	for _, e := range entries {
		index[strings.ToLower(e.Term)] = e.Definition
	}
	return index
}

// Load reads a YAML term-to-definition mapping.
func Load(r io.Reader) ([]Entry, error) {
	var raw map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}

	terms := make([]string, 0, len(raw))
	for t := range raw {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	entries := make([]Entry, 0, len(terms))
	for _, t := range terms {
		entries = append(entries, Entry{Term: t, Definition: raw[t]})
	}
	return entries, nil
}

// LoadFile reads a vocabulary YAML file from disk.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
