package chapters

import (
	"bytes"
	_ "embed"
)

//go:embed chapters.yaml
var defaultYAML []byte

// DefaultTable returns the bundled economics textbook chapter table.
func DefaultTable() []TableEntry {
	table, err := LoadTable(bytes.NewReader(defaultYAML))
	if err != nil {
		panic("chapters: embedded chapters.yaml is invalid: " + err.Error())
	}
	return table
}
