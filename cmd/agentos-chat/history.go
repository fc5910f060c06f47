package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazelment/agentos-go/agentos"
)

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the conversation history of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryCmd,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the endpoint is reachable",
	RunE:  runHealthCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := setupContext()
	defer cancel()

	if err := client.LoadHistory(ctx, args[0]); err != nil {
		return err
	}

	for _, msg := range client.Messages() {
		label := "agent"
		if msg.Role == agentos.RoleUser {
			label = "user"
		}
		at := time.Unix(msg.CreatedAt, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("[%s] %s:\n%s\n\n", at, label, msg.Content)
	}
	return nil
}

func runHealthCmd(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := setupContext()
	defer cancel()

	if !client.CheckEndpoint(ctx) {
		return fmt.Errorf("endpoint is not reachable")
	}
	fmt.Println("OK")
	return nil
}
