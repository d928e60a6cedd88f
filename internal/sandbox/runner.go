package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Language selects the interpreter a snippet is dispatched to.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
)

const (
	// DefaultTimeout matches the original service's 10 second cap.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxOutputBytes caps captured output so a spewing process
	// cannot exhaust memory.
	DefaultMaxOutputBytes = 64 * 1024
	// waitDelay is how long to wait for pipes to drain after the context
	// kills the process before forcibly abandoning them.
	waitDelay = 2 * time.Second
)

// Request is a single execution of untrusted code.
type Request struct {
	Code     string
	Language Language
}

// Result is the terminal outcome of a run. Every request gets exactly one,
// within the configured timeout plus bounded overhead. Producing stderr text
// is the error signal; a non-zero exit code alone is not.
type Result struct {
	Succeeded      bool
	CombinedOutput string
}

// Options configures the runner. Zero values fall back to defaults.
type Options struct {
	Timeout        time.Duration
	MaxOutputBytes int
	NodeBin        string
	PythonBin      string
}

// Runner launches isolated, time-bounded interpreter subprocesses. Runs are
// stateless and independent: many may execute concurrently, and a hung one
// cannot block another or any room.
type Runner struct {
	opts Options
	log  *zerolog.Logger
}

// NewRunner creates a runner with the given options.
func NewRunner(opts Options, logger *zerolog.Logger) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if opts.NodeBin == "" {
		opts.NodeBin = "node"
	}
	if opts.PythonBin == "" {
		opts.PythonBin = "python3"
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Runner{opts: opts, log: logger}
}

// Supported reports whether a language can be dispatched.
func Supported(lang Language) bool {
	return lang == LanguageJavaScript || lang == LanguagePython
}

func (r *Runner) command(lang Language) (bin string, args []string, ok bool) {
	switch lang {
	case LanguageJavaScript:
		return r.opts.NodeBin, []string{"-e"}, true
	case LanguagePython:
		return r.opts.PythonBin, []string{"-c"}, true
	default:
		return "", nil, false
	}
}

// Execute runs a snippet and returns its single terminal result. stderr
// takes precedence over stdout in the combined output; an empty snippet
// short-circuits without spawning anything. The passed context lets a
// caller abandon a run early (e.g. its connection died).
func (r *Runner) Execute(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Code) == "" {
		return Result{Succeeded: false, CombinedOutput: "No code to execute."}
	}

	bin, args, ok := r.command(req.Language)
	if !ok {
		return Result{Succeeded: false, CombinedOutput: fmt.Sprintf("Unsupported language: %s", req.Language)}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, append(args, req.Code)...)
	stdout := &limitedBuffer{limit: r.opts.MaxOutputBytes}
	stderr := &limitedBuffer{limit: r.opts.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setPlatformAttrs(cmd)

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

	r.log.Debug().
		Str("language", string(req.Language)).
		Dur("elapsed", elapsed).
		Bool("timed_out", timedOut).
		Msg("execution finished")

	if timedOut {
		msg := fmt.Sprintf("Execution timed out after %s.", r.opts.Timeout)
		if partial := firstNonEmpty(stderr.String(), stdout.String()); partial != "" {
			msg += "\n" + partial
		}
		return Result{Succeeded: false, CombinedOutput: msg}
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// Interpreter missing or unstartable; nothing ran.
		return Result{Succeeded: false, CombinedOutput: fmt.Sprintf("Failed to start interpreter: %v", runErr)}
	}

	if errOut := stderr.String(); errOut != "" {
		return Result{Succeeded: false, CombinedOutput: errOut}
	}
	if out := stdout.String(); out != "" {
		return Result{Succeeded: true, CombinedOutput: out}
	}
	return Result{Succeeded: true, CombinedOutput: "Execution finished with no output."}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// limitedBuffer keeps the first limit bytes written and swallows the rest,
// so the pipe never backs up or errors on an over-chatty process.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remain := b.limit - b.buf.Len()
	switch {
	case remain <= 0:
		b.truncated = true
	case len(p) > remain:
		b.buf.Write(p[:remain])
		b.truncated = true
	default:
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n[output truncated]"
	}
	return b.buf.String()
}
