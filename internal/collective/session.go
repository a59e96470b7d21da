package collective

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

const (
	quitCommand = "/quit"
	viewCommand = "/view"
	rule        = "============================================================"
	thinRule    = "------------------------------------------------------------"
)

// LineReader is the part of *readline.Instance a Session reads from.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// NewLineReader returns a readline prompt of the form "Name> ".
func NewLineReader(name, historyFile string) (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          name + "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       quitCommand,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return rl, nil
}

// Session is one human's interactive chat with the collective.
type Session struct {
	client *Client
	in     LineReader
	out    io.Writer
}

// NewSession binds an initialized client to a line reader and output.
func NewSession(client *Client, in LineReader, out io.Writer) *Session {
	return &Session{client: client, in: in, out: out}
}

// Run prints the banner and relays messages until /quit, interrupt or
// EOF. The client and reader are closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		_ = s.in.Close()
		if err := s.client.Close(); err != nil {
			s.client.cfg.Logger.Debug("closing collective session", "error", err)
		}
	}()

	s.banner()

	for {
		line, err := s.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			s.println()
			s.println("Leaving the collective...")
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == quitCommand:
			s.println("Leaving the collective...")
			return nil
		case isCommand(line, viewCommand):
			s.view(ctx, line)
		default:
			s.send(ctx, line)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Session) banner() {
	cfg := s.client.cfg
	s.println(rule)
	s.println("Joining the Autonomous Collective")
	s.println(rule)
	s.printf("Human: %s\n", cfg.HumanName)
	s.printf("UUID: %s\n", cfg.AgentUUID)
	s.printf("Session: %s\n", cfg.SessionToken)
	s.println(rule)
	s.println()
	s.println("✓ Connected to collective substrate")
	s.println()
	s.println("Commands:")
	s.printf("  /view [N]  - View last N messages (default %d)\n", cfg.ViewCount)
	s.println("  /quit      - Leave the collective")
	s.println("  <message>  - Send message to collective")
	s.println()
}

func (s *Session) view(ctx context.Context, line string) {
	count := s.client.cfg.ViewCount
	if fields := strings.Fields(line); len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			s.printf("Error: invalid message count %q\n\n", fields[1])
			return
		}
		count = n
	}

	s.printf("Recent conversation (last %d messages):\n", count)
	s.println(thinRule)

	history, err := s.client.View(ctx, count)
	if err != nil {
		s.printf("Error: %v\n\n", err)
		return
	}
	if history == "" {
		history = "No messages yet"
	}
	s.println(history)
	s.println()
}

func (s *Session) send(ctx context.Context, message string) {
	s.printf("[%s] %s\n\n", s.client.cfg.HumanName, message)

	response, err := s.client.Send(ctx, message)
	if err != nil {
		s.printf("Error: %v\n\n", err)
		return
	}
	if response == "" {
		return
	}
	s.println("Response:")
	s.println(response)
	s.println()
}

func (s *Session) println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Session) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// isCommand reports whether line is name optionally followed by arguments.
func isCommand(line, name string) bool {
	return line == name || strings.HasPrefix(line, name+" ")
}
