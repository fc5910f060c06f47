package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazelment/agentos-go/agentos"
	"github.com/bazelment/agentos-go/agentos/toolkit"
)

func runChatCmd(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := setupContext()
	defer cancel()

	if !client.CheckEndpoint(ctx) {
		fmt.Fprintln(os.Stderr, "Warning: endpoint health check failed, continuing anyway")
	}

	renderer := newRenderer()
	go renderer.run(client.Events())

	tools := localTools()

	fmt.Println("Chat started. Type your messages (Ctrl+D to exit):")
	fmt.Println("---")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := runTurn(ctx, client, tools, input); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// runTurn sends one user message and drives the run to completion, resolving
// delegated tools locally whenever the run pauses.
func runTurn(ctx context.Context, client *agentos.Client, tools *toolkit.Registry, input string) error {
	if err := client.Send(ctx, input); err != nil {
		return err
	}

	for {
		state := client.RunState()
		if !state.IsPaused {
			return nil
		}

		results := tools.Execute(ctx, state.ToolsAwaitingExecution)
		if err := client.ContinueRun(ctx, results); err != nil {
			if errors.Is(err, agentos.ErrResumeUnsupported) {
				fmt.Fprintln(os.Stderr, "This entity cannot resume paused runs; start a new message instead.")
				return nil
			}
			return err
		}
	}
}

// renderer prints streamed content deltas and tool activity from the client's
// event channel.
type renderer struct {
	printed   int
	toolsSeen map[string]bool
}

func newRenderer() *renderer {
	return &renderer{toolsSeen: make(map[string]bool)}
}

// run drains events until the channel closes or the client goes away. It is
// the sole writer of streamed output.
func (r *renderer) run(events <-chan agentos.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case agentos.StreamStartedEvent:
			r.printed = 0

		case agentos.MessagesUpdatedEvent:
			r.render(e.Messages)

		case agentos.RunPausedEvent:
			fmt.Printf("\n[run paused, %d delegated tool(s)]\n", len(e.Tools))

		case agentos.RunResumedEvent:
			fmt.Println("[run resumed]")

		case agentos.StreamCompletedEvent:
			fmt.Println()

		case agentos.SessionCreatedEvent:
			fmt.Printf("[session %s]\n", e.Session.SessionID)
		}
	}
}

// render prints the not-yet-printed suffix of the in-progress agent message
// plus any newly observed tool activity.
func (r *renderer) render(msgs []agentos.Message) {
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != agentos.RoleAgent {
		return
	}

	for _, tc := range last.ToolCalls {
		if r.toolsSeen[tc.ToolCallID+tc.ToolName] {
			continue
		}
		r.toolsSeen[tc.ToolCallID+tc.ToolName] = true
		fmt.Printf("\n[tool %s]\n", tc.ToolName)
	}

	if r.printed > len(last.Content) {
		// Content was replaced rather than extended; start over.
		fmt.Println()
		r.printed = 0
	}
	fmt.Print(last.Content[r.printed:])
	r.printed = len(last.Content)
}

// localTools registers the tools this client executes on the agent's behalf.
func localTools() *toolkit.Registry {
	reg := toolkit.NewRegistry()

	type timeParams struct {
		Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA timezone name,default=UTC"`
	}
	toolkit.AddTool(reg, "get_current_time", "Return the current time",
		func(ctx context.Context, p timeParams) (string, error) {
			loc := time.UTC
			if p.Timezone != "" {
				l, err := time.LoadLocation(p.Timezone)
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q", p.Timezone)
				}
				loc = l
			}
			return time.Now().In(loc).Format(time.RFC3339), nil
		})

	type envParams struct {
		Name string `json:"name" jsonschema:"required,description=Environment variable name"`
	}
	toolkit.AddTool(reg, "read_env", "Read an environment variable",
		func(ctx context.Context, p envParams) (string, error) {
			value, ok := os.LookupEnv(p.Name)
			if !ok {
				return "", fmt.Errorf("environment variable %s not set", p.Name)
			}
			return value, nil
		})

	return reg
}

// setupContext creates a context cancelled by SIGINT/SIGTERM. A second
// signal forces exit.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
		<-sigCh
		os.Exit(1)
	}()

	return ctx, cancel
}
