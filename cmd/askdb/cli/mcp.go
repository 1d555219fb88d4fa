package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askdb/askdb/internal/connector"
	"github.com/askdb/askdb/internal/llm"
	amcp "github.com/askdb/askdb/internal/mcp"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

func newMCPCmd() *cobra.Command {
	var userEmail string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the projects of a
single user as tools for AI agents like Claude. The server communicates over
stdin/stdout using JSON-RPC, suitable for direct integration with Claude
Desktop or other MCP clients.`,
		Example: `  askdb mcp --user alice@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(userEmail)
		},
	}

	cmd.Flags().StringVar(&userEmail, "user", "", "Email of the account whose projects the tools operate on (required)")
	cmd.MarkFlagRequired("user")

	return cmd
}

func runMCP(userEmail string) error {
	// Stdout carries the JSON-RPC stream, so logs must go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	u, err := st.GetUserByEmail(context.Background(), userEmail)
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("no user with email %q", userEmail)
		}
		return err
	}

	var llmOpts []llm.Option
	if base := viper.GetString("llm.base_url"); base != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(base))
	}
	if m := viper.GetString("llm.model"); m != "" {
		llmOpts = append(llmOpts, llm.WithModel(m))
	}
	queries := service.NewQueryService(st, connector.DefaultRegistry(), llm.NewClient(llmOpts...))

	logger.Info("starting MCP server", "user", userEmail)
	return amcp.NewMCPServer(st, queries, u.ID, logger).ServeStdio()
}
