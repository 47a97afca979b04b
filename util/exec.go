package util

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"
)

// ErrCommandTimeout distinguishes a command killed by its deadline from an
// ordinary non-zero exit.
var ErrCommandTimeout = errors.New("command timed out")

// CommandResult captures everything the pipeline needs from a finished
// subprocess.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// RunCommand runs a command to completion, capturing output. A non-zero exit
// is not an error; callers inspect ExitCode. The error return is reserved for
// failures to run at all (missing executable, cancelled context) and for
// timeouts, reported as ErrCommandTimeout.
func RunCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (CommandResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, ErrCommandTimeout
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Ran but exited non-zero; the caller decides what that means.
			return result, nil
		}
		return result, err
	}
	return result, nil
}

var (
	commandCacheMu sync.Mutex
	commandCache   = make(map[string]bool)
)

// CommandAvailable reports whether an executable can be found on PATH.
// Results are cached for the process lifetime.
func CommandAvailable(name string) bool {
	commandCacheMu.Lock()
	defer commandCacheMu.Unlock()
	if ok, cached := commandCache[name]; cached {
		return ok
	}
	_, err := exec.LookPath(name)
	commandCache[name] = err == nil
	return commandCache[name]
}
