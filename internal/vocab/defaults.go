package vocab

import (
	"bytes"
	_ "embed"
)

//go:embed vocabulary.yaml
var defaultYAML []byte

// Default returns the bundled economics dictionary.
func Default() []Entry {
	entries, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic("vocab: embedded vocabulary.yaml is invalid: " + err.Error())
	}
	return entries
}
