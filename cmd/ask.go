package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shoptalk-demo/shoptalk/internal/app"
	"github.com/shoptalk-demo/shoptalk/internal/config"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

var askShowDB bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question and print the tool calls it triggers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowDB, "db", false, "print the database snapshot after the turn")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.Join(args, " ")

	turn, err := a.Orchestrator.Converse(ctx, []toolcall.Message{
		{Role: toolcall.RoleUser, Content: question},
	})
	if err != nil {
		return fmt.Errorf("running turn: %w", err)
	}

	if turn.Content != "" {
		fmt.Println(turn.Content)
	}
	for _, tc := range turn.ToolCalls {
		result, err := json.MarshalIndent(tc.Result, "", "  ")
		if err != nil {
			result = []byte(fmt.Sprintf("%v", tc.Result))
		}
		fmt.Printf("[%s] %s(%s) -> %s (%dms)\n",
			tc.Status, tc.Function.Name, tc.Function.Arguments, result, tc.DurationMs)
	}

	if askShowDB {
		snap, err := json.MarshalIndent(turn.DB, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		fmt.Println(string(snap))
	}

	return nil
}
