package classifier

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandClassifier runs a local prediction script as
// "<interpreter> <script> <description> <priority> <YYYY-MM-DD>" and reads the cadence
// from its standard output.
type CommandClassifier struct {
	Interpreter string
	Script      string
	Timeout     time.Duration
}

func NewCommandClassifier(interpreter, script string, timeout time.Duration) *CommandClassifier {
	return &CommandClassifier{Interpreter: interpreter, Script: script, Timeout: timeout}
}

func (c *CommandClassifier) Classify(ctx context.Context, description, priority string, deadline time.Time) (Cadence, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var args []string
	if c.Script != "" {
		args = append(args, c.Script)
	}
	args = append(args, description, priority, deadline.Format(deadlineLayout))

	cmd := exec.CommandContext(ctx, c.Interpreter, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("reminder prediction timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("reminder prediction failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseCadence(stdout.String())
}
