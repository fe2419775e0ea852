package goduck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"
)

type ReplOptions struct {
	// HistoryFile keeps readline history across sessions when set.
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

func doQuery(ctx context.Context, w io.Writer, b *Bridge, conn *Conn, query string) error {
	s, err := b.Execute(ctx, conn, Request{SQL: query, Cardinality: Many})
	if err != nil {
		return err
	}
	defer s.Close()

	columns, err := s.Columns(ctx)
	if err != nil {
		return err
	}

	var rows [][]string
	var summary *Summary
	for {
		msg, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if msg.Summary != nil {
			summary = msg.Summary
			continue
		}
		row := make([]string, len(msg.Row))
		for i, c := range msg.Row {
			if !c.Field.IsNull() {
				row[i] = c.Field.String()
			}
		}
		rows = append(rows, row)
	}

	switch {
	case summary != nil:
		fmt.Fprintf(w, "(%d rows affected)\n", summary.RowsAffected)
		return nil
	case len(columns) == 0:
		fmt.Fprintln(w, "ok")
		return nil
	case len(rows) == 0:
		fmt.Fprintln(w, "(no results)")
		return nil
	}

	table := tablewriter.NewWriter(w)
	header := []string{}
	for _, col := range columns {
		header = append(header, col.Name)
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()

	if len(rows) == 1 {
		fmt.Fprintln(w, "(1 result)")
	} else {
		fmt.Fprintf(w, "(%d results)\n", len(rows))
	}

	return nil
}

func debugTables(ctx context.Context, w io.Writer, b *Bridge, conn *Conn) error {
	s, err := b.Execute(ctx, conn, Request{SQL: "SHOW TABLES", Cardinality: Many})
	if err != nil {
		return err
	}
	defer s.Close()

	messages, err := s.Collect(ctx)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Fprintln(w, "Did not find any relations.")
		return nil
	}

	fmt.Fprintln(w, "List of relations")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	rows := [][]string{}
	for _, msg := range messages {
		if len(msg.Row) == 0 {
			continue
		}
		rows = append(rows, []string{msg.Row[0].Field.String(), "table"})
	}

	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(w, "")
	return nil
}

// splitStatements splits source on semicolons outside of quotes.
func splitStatements(source string) []string {
	var statements []string
	var quote rune
	start := 0
	for i, r := range source {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			if s := strings.TrimSpace(source[start:i]); s != "" {
				statements = append(statements, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(source[start:]); s != "" {
		statements = append(statements, s)
	}
	return statements
}

// execLine runs one line of input. It reports false when the session should
// end.
func execLine(ctx context.Context, w io.Writer, b *Bridge, conn *Conn, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return true
	case trimmed == "quit" || trimmed == "exit" || trimmed == "\\q":
		return false
	case trimmed == "\\dt":
		if err := debugTables(ctx, w, b, conn); err != nil {
			fmt.Fprintln(w, "Error listing tables:", err)
		}
		return true
	case strings.HasPrefix(trimmed, "\\p"):
		// Parse only, in the memory engine's dialect.
		ast, err := Parse(strings.TrimSpace(trimmed[len("\\p"):]))
		if err != nil {
			fmt.Fprintln(w, "Error while parsing:", err)
			return true
		}
		for _, stmt := range ast.Statements {
			fmt.Fprintln(w, stmt.GenerateCode())
		}
		return true
	}

	for _, stmt := range splitStatements(line) {
		if err := doQuery(ctx, w, b, conn, stmt); err != nil {
			fmt.Fprintln(w, "Error:", err)
			return true
		}
	}
	return true
}

// RunRepl reads statements from the terminal and prints their results until
// the input ends or the user quits.
func RunRepl(ctx context.Context, b *Bridge, conn *Conn, opts ReplOptions) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "# ",
		HistoryFile:     opts.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           opts.Stdin,
		Stdout:          opts.Stdout,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Fprintln(opts.Stdout, "Welcome to goduck.")
	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error while reading line: %w", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !execLine(ctx, opts.Stdout, b, conn, line) {
			return nil
		}
	}
}
