// Package transport delivers command text to the dispatcher from sources
// other than HTTP.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"greenguile/internal/logger"
)

const quitCommand = "quit"

// Processor turns a command line into a reply.
type Processor interface {
	Process(ctx context.Context, raw string) string
}

// Console reads one command per line, the way an SMS modem would hand them
// over, and writes each reply back.
type Console struct {
	in     io.Reader
	out    io.Writer
	prompt bool
	log    *logger.Logger
}

// NewConsole reads from in and writes replies to out. When prompt is set a
// banner and an input prompt are printed for interactive use.
func NewConsole(in io.Reader, out io.Writer, prompt bool, log *logger.Logger) *Console {
	if log == nil {
		log = logger.Nop()
	}
	return &Console{in: in, out: out, prompt: prompt, log: log}
}

// Run returns on "quit", end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context, p Processor) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	if c.prompt {
		fmt.Fprintln(c.out, "Type SMS commands or 'quit' to exit")
		fmt.Fprintln(c.out, "Available commands: ACTIVATE, DEACTIVATE, SEASON <season>, STATUS")
		fmt.Fprintln(c.out, strings.Repeat("-", 50))
	}

	for {
		if c.prompt {
			fmt.Fprint(c.out, "\nSMS Command: ")
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read commands: %w", err)
					}
				default:
				}
				return nil
			}
			if strings.EqualFold(strings.TrimSpace(line), quitCommand) {
				return nil
			}
			reply := p.Process(ctx, line)
			c.log.Debugw("console_command", "text", line)
			if _, err := fmt.Fprintf(c.out, "Response: %s\n", reply); err != nil {
				return fmt.Errorf("write reply: %w", err)
			}
		}
	}
}
