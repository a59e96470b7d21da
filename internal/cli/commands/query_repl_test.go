package commands

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-universe/sidekick/internal/cli/output"
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/sidekick-universe/sidekick/internal/testutil"
)

// scriptedReader replays lines, then reports EOF.
type scriptedReader struct {
	lines   []string
	errs    map[int]error
	prompts []string
	closed  bool
	pos     int
}

func (s *scriptedReader) Readline() (string, error) {
	if err, ok := s.errs[s.pos]; ok {
		s.pos++
		return "", err
	}
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

func (s *scriptedReader) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *scriptedReader) Close() error {
	s.closed = true
	return nil
}

type replHarness struct {
	repl   *repl
	in     *scriptedReader
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestREPL(t *testing.T, readOnly bool, lines ...string) *replHarness {
	t.Helper()

	cfg := testConfig()
	cfg.ReadOnly = readOnly
	logger := testutil.NewTestLogger(t)

	exp, err := explorer.Open(context.Background(), explorer.Config{
		Path:     testutil.SampleDatabase(t),
		ReadOnly: readOnly,
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exp.Close() })

	var out, errOut bytes.Buffer
	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(&out, &errOut, output.ModeText),
	}
	in := &scriptedReader{lines: lines}

	return &replHarness{repl: newREPL(cc, exp, in), in: in, out: &out, errOut: &errOut}
}

func (h *replHarness) run(t *testing.T) {
	t.Helper()
	require.NoError(t, h.repl.run(context.Background()))
}

func TestREPL_StatementAndEOF(t *testing.T) {
	h := newTestREPL(t, true, "SELECT name FROM users WHERE id = 1;")
	h.run(t)

	assert.Contains(t, h.out.String(), "alice")
	assert.Contains(t, h.out.String(), "Total rows: 1")
	assert.True(t, h.in.closed)
}

func TestREPL_MultiLineStatement(t *testing.T) {
	h := newTestREPL(t, true,
		"SELECT name",
		"FROM users",
		"WHERE id = 2;",
	)
	h.run(t)

	assert.Contains(t, h.out.String(), "bob")
	assert.Equal(t, []string{replContinuePrompt, replContinuePrompt, replPrompt}, h.in.prompts)
}

func TestREPL_EmptyLineSubmitsPending(t *testing.T) {
	h := newTestREPL(t, true,
		"SELECT name FROM users WHERE id = 3",
		"",
		"SELECT 7 AS seven",
		"",
	)
	h.run(t)

	assert.Contains(t, h.out.String(), "carol")
	assert.Contains(t, h.out.String(), "seven")
	assert.Empty(t, h.errOut.String())
	assert.Equal(t, []string{replContinuePrompt, replPrompt, replContinuePrompt, replPrompt}, h.in.prompts)
}

func TestREPL_SemicolonInsideStringContinues(t *testing.T) {
	h := newTestREPL(t, true,
		"SELECT 'a;",
		"b' AS joined;",
	)
	h.run(t)

	assert.Empty(t, h.errOut.String())
	assert.Contains(t, h.out.String(), "joined")
	assert.Equal(t, []string{replContinuePrompt, replPrompt}, h.in.prompts)
}

func TestREPL_StatementsOnOneLineRunInOrder(t *testing.T) {
	h := newTestREPL(t, false,
		"DELETE FROM orders WHERE user_id = 1; SELEC oops; DELETE FROM orders;",
		"SELECT COUNT(*) || ' left' AS remaining FROM orders;",
	)
	h.run(t)

	assert.Contains(t, h.out.String(), "Rows affected: 1")
	assert.Contains(t, h.errOut.String(), "syntax error")
	// The statement after the failure was discarded.
	assert.Contains(t, h.out.String(), "2 left")
}

func TestREPL_ErrorsDoNotEndSession(t *testing.T) {
	h := newTestREPL(t, true,
		"SELEC broken;",
		"DELETE FROM users;",
		"SELECT COUNT(*) FROM users;",
	)
	h.run(t)

	assert.Contains(t, h.errOut.String(), "syntax error")
	assert.Contains(t, h.errOut.String(), "readonly")
	assert.Contains(t, h.out.String(), "3")
}

func TestREPL_WriteModeReportsAffectedRows(t *testing.T) {
	h := newTestREPL(t, false, "DELETE FROM orders WHERE user_id = 1;")
	h.run(t)

	assert.Contains(t, h.out.String(), "Rows affected: 1")
}

func TestREPL_InterruptDiscardsPending(t *testing.T) {
	// The read at position 1 is interrupted; its line is never returned.
	h := newTestREPL(t, true, "SELECT name FROM", "", "SELECT 42 AS answer;")
	h.in.errs = map[int]error{1: readline.ErrInterrupt}
	h.run(t)

	assert.Contains(t, h.errOut.String(), "Interrupted")
	assert.NotContains(t, h.errOut.String(), "syntax error")
	assert.Contains(t, h.out.String(), "42")
}

func TestREPL_ExitStopsReading(t *testing.T) {
	h := newTestREPL(t, true, ".exit", "SELECT 'unreached';")
	h.run(t)

	assert.NotContains(t, h.out.String(), "unreached")
}

func TestREPL_DotCommands(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantOut []string
		wantErr []string
	}{
		{
			name:    "help",
			lines:   []string{".help"},
			wantOut: []string{".tables", ".count <table>"},
		},
		{
			name:    "tables",
			lines:   []string{".tables"},
			wantOut: []string{"orders", "users"},
		},
		{
			name:    "schema of one table",
			lines:   []string{".schema users"},
			wantOut: []string{"users (3 rows)", "id INTEGER PK", "name TEXT NOT NULL", "index idx_users_name"},
		},
		{
			name:    "schema of all tables",
			lines:   []string{".schema"},
			wantOut: []string{"orders (3 rows)", "users (3 rows)"},
		},
		{
			name:    "count",
			lines:   []string{".count orders"},
			wantOut: []string{"orders: 3 rows"},
		},
		{
			name:    "count rejects unknown table",
			lines:   []string{".count users; DROP TABLE users"},
			wantErr: []string{"Usage: .count"},
		},
		{
			name:    "schema rejects unknown table",
			lines:   []string{".schema nope"},
			wantErr: []string{`unknown table "nope"`},
		},
		{
			name:    "count rejects injection",
			lines:   []string{`.count users";DROP`},
			wantErr: []string{"unknown table"},
		},
		{
			name:    "format switch",
			lines:   []string{".format csv", "SELECT id, name FROM users WHERE id = 1;"},
			wantOut: []string{"1,alice"},
		},
		{
			name:    "format rejects unknown",
			lines:   []string{".format xml", ".format"},
			wantOut: []string{"format: table"},
			wantErr: []string{`Unknown format "xml"`},
		},
		{
			name:    "limit",
			lines:   []string{".limit 1", ".limit", "SELECT name FROM users ORDER BY id;"},
			wantOut: []string{"limit: 1", "Showing 1 of 3 rows"},
		},
		{
			name:    "limit rejects zero",
			lines:   []string{".limit 0"},
			wantErr: []string{"Usage: .limit"},
		},
		{
			name:    "clear",
			lines:   []string{".clear"},
			wantOut: []string{"\033[H\033[2J"},
		},
		{
			name:    "unknown",
			lines:   []string{".frobnicate"},
			wantErr: []string{"Unknown command: .frobnicate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestREPL(t, true, tt.lines...)
			h.run(t)

			for _, want := range tt.wantOut {
				assert.Contains(t, h.out.String(), want)
			}
			for _, want := range tt.wantErr {
				assert.Contains(t, h.errOut.String(), want)
			}
		})
	}
}

func TestREPL_DotCommandInsideStatementIsSQL(t *testing.T) {
	h := newTestREPL(t, true, "SELECT 1", ".tables;")
	h.run(t)

	// ".tables;" continues the pending statement and fails as SQL.
	assert.Contains(t, h.errOut.String(), "Error:")
	assert.NotContains(t, h.out.String(), "orders")
}

func TestNewTableCompleter(t *testing.T) {
	h := newTestREPL(t, true)
	c := newTableCompleter(context.Background(), h.repl.exp)

	names := make([]string, 0, len(c.GetChildren()))
	for _, child := range c.GetChildren() {
		names = append(names, string(child.GetName()))
	}
	assert.Contains(t, names, "users ")
	assert.Contains(t, names, ".schema ")
	assert.Contains(t, names, ".exit ")
}
