// Package main provides the dukaanbot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dukaanlabs/dukaanbot/cli"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "dukaanbot",
		Short: "Bilingual shop assistant over pluggable LLM providers",
		Long: `A chatbot backend for small retail shops.

Conversations route through an intent pipeline that answers stock questions
and records orders against a local catalog, falling back to the configured
LLM provider for everything else. English and Hindi are both understood.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini, compat)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(ordersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	var model string
	var stream bool
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

With inventory enabled (the default), stock questions and orders are answered
from the local catalog; other messages go to the LLM provider. Streaming mode
prints provider output incrementally and bypasses the inventory pipeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Model:    model,
				Stream:   stream,
				Verbose:  verbose,
			}
			return cli.Chat(context.Background(), sessionID, dbPath, opts)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Override the provider's default model")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream provider output incrementally")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (defaults to DUKAANBOT_DB or dukaanbot.db)")

	return cmd
}

func catalogCmd() *cobra.Command {
	var dbPath string
	var scope string
	var unit string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "dukaanbot.db", "Database path")
	cmd.PersistentFlags().StringVar(&scope, "scope", "default", "Catalog scope")

	addCmd := &cobra.Command{
		Use:   "add [name] [sku] [stock]",
		Short: "Add or replace a catalog item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stock, err := strconv.Atoi(args[2])
			if err != nil || stock < 0 {
				return fmt.Errorf("stock must be a non-negative integer, got %q", args[2])
			}
			return cli.CatalogAdd(context.Background(), dbPath, scope, args[0], args[1], stock, unit)
		},
	}
	addCmd.Flags().StringVar(&unit, "unit", "pcs", "Stock unit label")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CatalogList(context.Background(), dbPath, scope)
		},
	}

	setStockCmd := &cobra.Command{
		Use:   "set-stock [sku] [stock]",
		Short: "Set an item's stock level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stock, err := strconv.Atoi(args[1])
			if err != nil || stock < 0 {
				return fmt.Errorf("stock must be a non-negative integer, got %q", args[1])
			}
			return cli.CatalogSetStock(context.Background(), dbPath, scope, args[0], stock)
		},
	}

	cmd.AddCommand(addCmd, listCmd, setStockCmd)
	return cmd
}

func ordersCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and update recorded orders",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "dukaanbot.db", "Database path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.OrdersList(context.Background(), dbPath)
		},
	}

	confirmCmd := &cobra.Command{
		Use:   "confirm [order-id]",
		Short: "Confirm a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.OrderSetStatus(context.Background(), dbPath, args[0], "confirmed")
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject [order-id]",
		Short: "Reject a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.OrderSetStatus(context.Background(), dbPath, args[0], "rejected")
		},
	}

	cmd.AddCommand(listCmd, confirmCmd, rejectCmd)
	return cmd
}
