// Package approval implements the interactive y/N confirmation gate that
// run_command consults when the active approval mode is "ask".
package approval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
	"golang.org/x/term"
)

// Prompter renders a y/N banner to stderr and reads the operator's answer
// from stdin, optionally bounded by a timeout.
type Prompter struct {
	In           io.Reader
	Out          io.Writer
	TimeoutMs    int
	JSONMode     bool
	stdinFd      int
	stderrFd     int
	isTerminalFn func(fd int) bool
}

// NewPrompter builds a Prompter wired to the real stdin/stderr.
func NewPrompter(timeoutMs int, jsonMode bool) *Prompter {
	return &Prompter{
		In:           os.Stdin,
		Out:          os.Stderr,
		TimeoutMs:    timeoutMs,
		JSONMode:     jsonMode,
		stdinFd:      int(os.Stdin.Fd()),
		stderrFd:     int(os.Stderr.Fd()),
		isTerminalFn: term.IsTerminal,
	}
}

// Approve renders the banner and blocks for an answer. It returns an error
// (never a bare "false") when the precondition for interactive approval is
// not met — no TTY, or --json mode is active.
func (p *Prompter) Approve(toolName string, profile config.Profile, command string) (bool, error) {
	if p.JSONMode {
		return false, errs.New(errs.CodeInteractiveApprovalJSON, "interactive approval is unavailable in --json mode")
	}
	if !p.isTerminalFn(p.stdinFd) || !p.isTerminalFn(p.stderrFd) {
		return false, errs.New(errs.CodeInteractiveApprovalTTY, "interactive approval requires stdin and stderr to be a TTY")
	}

	fmt.Fprintf(p.Out, "tool: %s\n", toolName)
	fmt.Fprintf(p.Out, "profile: %s\n", profile)
	fmt.Fprintf(p.Out, "command: %s\n", command)
	fmt.Fprint(p.Out, "Approve? [y/N]: ")

	answer, ok := p.readLine()
	if !ok {
		return false, nil
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (p *Prompter) readLine() (string, bool) {
	lineCh := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(p.In)
		text, err := reader.ReadString('\n')
		if err != nil && text == "" {
			lineCh <- ""
			return
		}
		lineCh <- text
	}()

	if p.TimeoutMs <= 0 {
		return <-lineCh, true
	}

	select {
	case text := <-lineCh:
		return text, true
	case <-time.After(time.Duration(p.TimeoutMs) * time.Millisecond):
		return "", false
	}
}
