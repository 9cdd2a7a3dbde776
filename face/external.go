package face

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"
)

type comparePayload struct {
	Stored string `json:"stored"`
	Input  string `json:"input"`
}

// ExternalComparer delegates the match decision to an external program,
// typically a wrapper around a face-recognition model. The program
// receives a JSON object {"stored": ..., "input": ...} on stdin with the
// raw base64 payloads and must print exactly "True" on stdout to signal
// a match.
//
// The comparer fails closed: a non-zero exit, unexpected output, or the
// timeout expiring all count as no-match with a nil error, so a broken
// recognizer can never authenticate anyone.
type ExternalComparer struct {
	command string
	args    []string
	timeout time.Duration
}

// NewExternalComparer runs command args... for each comparison, killing
// it after timeout. A non-positive timeout defaults to 10 seconds.
func NewExternalComparer(timeout time.Duration, command string, args ...string) *ExternalComparer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExternalComparer{command: command, args: args, timeout: timeout}
}

// Compare implements Comparer.
func (e *ExternalComparer) Compare(ctx context.Context, reference, candidate string) (bool, error) {
	input, err := json.Marshal(comparePayload{Stored: reference, Input: candidate})
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(input)

	out, err := cmd.Output()
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(string(out)) == "True", nil
}
