package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/petasbytes/coder-agent/agent"
	"github.com/petasbytes/coder-agent/memory"
)

var (
	youLabel   = color.New(color.FgHiBlue).SprintFunc()
	agentLabel = color.New(color.FgHiYellow).SprintFunc()
)

// repl reads one user message per line and prints each reply.
type repl struct {
	mgr       *agent.Manager
	historyID string
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintf(r.out, "Chat with %s (Ctrl-C to quit, conversation %s)\n", r.mgr.Name(), r.historyID)

	// stdin reader goroutine -> lines into channel
	scanner := bufio.NewScanner(r.in)
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprintf(r.out, "%s: ", youLabel("You"))
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "\nExiting...")
			return nil
		case line, ok = <-inputCh:
			if !ok {
				return scanner.Err()
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, err := r.mgr.SubmitTurn(ctx, r.historyID, []memory.Message{memory.User(line)})
		if err != nil {
			fmt.Fprintf(r.errOut, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "%s: %s\n", agentLabel(r.mgr.Name()), reply)
	}
}

// export writes the session history as a JSON transcript.
func (r *repl) export(ctx context.Context, path string) error {
	msgs, ok, err := r.mgr.History(ctx, r.historyID)
	if err != nil || !ok {
		return err
	}
	return memory.SaveTranscript(path, msgs)
}
