// Package agentos provides a Go client for the AgentOS streaming run
// protocol.
//
// The client consumes the chunked frame stream an AgentOS backend emits
// while a run executes, and reconstructs a consistent, queryable
// conversation in real time: streamed content is accumulated without
// duplication, tool calls are reconciled by identity, reasoning traces and
// media are merged, and terminal frames (completed, error, paused) drive the
// run lifecycle.
//
// # Basic Usage
//
//	client := agentos.NewClient("http://localhost:7777",
//	    agentos.WithAgent("generative-ui-demo"),
//	)
//
//	if err := client.Send(ctx, "Show me monthly revenue"); err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range client.Messages() {
//	    fmt.Printf("%s: %s\n", msg.Role, msg.Content)
//	}
//
// # Streaming Events
//
//	go func() {
//	    for event := range client.Events() {
//	        switch e := event.(type) {
//	        case agentos.MessagesUpdatedEvent:
//	            render(e.Messages)
//	        case agentos.RunPausedEvent:
//	            results := runTools(e.Tools)
//	            client.ContinueRun(ctx, results)
//	        }
//	    }
//	}()
//
// # Pause and Resume
//
// A run may suspend mid-flight to delegate tool execution to the caller
// (tools declared for external execution, confirmation or user input). The
// client surfaces the delegated tools via RunPausedEvent and RunState;
// ContinueRun posts the filled-in results and resumes streaming onto the
// same agent message. The toolkit subpackage provides a typed registry for
// executing delegated tools.
package agentos
