package book

import (
	"bufio"
	"io"
	"strings"
)

// TextLoader handles plain text files.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Book, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				blocks = append(blocks, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		blocks = append(blocks, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return paginate(strings.TrimSuffix(filename, ".txt"), blocks), nil
}
