package assistant

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandGenerator runs an external model binary per request. The prompt is
// written to stdin and the completion read from stdout, keeping the binary
// interchangeable with llama.cpp style runners.
type CommandGenerator struct {
	path string
	args []string
}

// CommandLoader returns a load function for LocalBackend that resolves the
// given command line. The lookup happens at load time so a missing binary
// surfaces as a load failure rather than per-request errors.
func CommandLoader(cmdline string) func(ctx context.Context) (Generator, error) {
	return func(ctx context.Context) (Generator, error) {
		fields := strings.Fields(cmdline)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty model command")
		}
		path, err := exec.LookPath(fields[0])
		if err != nil {
			return nil, fmt.Errorf("locate model command: %w", err)
		}
		return &CommandGenerator{path: path, args: fields[1:]}, nil
	}
}

func (g *CommandGenerator) Generate(ctx context.Context, prompt string, minTokens, maxTokens int) (string, error) {
	args := append([]string{}, g.args...)
	args = append(args, "--min-tokens", strconv.Itoa(minTokens), "--max-tokens", strconv.Itoa(maxTokens))

	cmd := exec.CommandContext(ctx, g.path, args...)
	cmd.Stdin = strings.NewReader(prompt)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("model command: %w: %s", err, strings.TrimSpace(errBuf.String()))
	}
	return strings.TrimSpace(out.String()), nil
}
