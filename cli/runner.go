// Command execution for CLI commands.
//
// Information Hiding:
// - Service assembly hidden
// - Session persistence hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dukaanlabs/dukaanbot/bot"
	"github.com/dukaanlabs/dukaanbot/config"
	"github.com/dukaanlabs/dukaanbot/intent"
	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
	"github.com/dukaanlabs/dukaanbot/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Model    string
	Stream   bool
	Verbose  bool
}

// resolver calls run with deterministic output and a short budget.
const (
	resolverMaxTokens = 200
)

// NewLogger builds the CLI's logger. Verbose mode surfaces debug events,
// including retry attempts and provider fallbacks.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Chat starts an interactive chat session. History persists per session
// when sessionID is non-empty.
func Chat(ctx context.Context, sessionID, dbPath string, opts Options) error {
	log := NewLogger(opts.Verbose)

	providerName := opts.Provider
	if providerName == "" {
		providerName = "openai"
	}
	settings, err := config.New(providerName)
	if err != nil {
		return err
	}

	registry, err := NewRegistry(settings.LLM.Provider, log)
	if err != nil {
		return err
	}

	store, err := openStore(settings, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	classifier := registry.Select(settings.LLM.Provider)
	if classifier == nil {
		return fmt.Errorf("provider %q is not configured", settings.LLM.Provider)
	}
	resolver := intent.NewResolver(classifier, llm.Options{MaxTokens: resolverMaxTokens}, log)

	svc := bot.NewService(registry, resolver, store, log)

	model := opts.Model
	if model == "" {
		model = settings.LLM.Model
	}
	cfg := bot.Config{
		Provider:         settings.LLM.Provider,
		Model:            model,
		Temperature:      settings.LLM.Temperature,
		MaxTokens:        settings.LLM.MaxTokens,
		SystemPrompt:     settings.Bot.SystemPrompt,
		InventoryEnabled: settings.Bot.InventoryEnabled && !opts.Stream,
		CatalogScope:     settings.Bot.CatalogScope,
	}

	session := sessionID
	if session == "" {
		session = "default"
	}

	history, err := store.LoadHistory(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) > 0 {
		fmt.Printf("Resuming session '%s' (%d messages)\n\n", session, len(history))
	}

	fmt.Printf("Chatting via %s. Type 'exit' to quit.\n\n", settings.LLM.Provider)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		turn := append(history, llm.UserMessage(input))

		var replyText string
		if opts.Stream {
			replyText, err = streamTurn(ctx, svc, turn, cfg)
		} else {
			replyText, err = runTurn(ctx, svc, turn, cfg)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}

		history = append(turn, llm.AssistantMessage(replyText))
		if err := store.SaveHistory(ctx, session, history); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
		}
	}

	return scanner.Err()
}

func runTurn(ctx context.Context, svc *bot.Service, turn []llm.Message, cfg bot.Config) (string, error) {
	res, err := svc.HandleTurn(ctx, turn, cfg)
	if err != nil {
		return "", err
	}
	fmt.Printf("\n%s\n\n", res.Reply)
	if res.Order != nil {
		fmt.Printf("[order %s] %d x %s (%s)\n\n",
			res.Order.ID, res.Order.RequestedQty, res.Order.ProductName, res.Order.Status)
	}
	return res.Reply, nil
}

func streamTurn(ctx context.Context, svc *bot.Service, turn []llm.Message, cfg bot.Config) (string, error) {
	var b strings.Builder
	var streamErr error

	fmt.Println()
	err := svc.GenerateStreamingResponse(ctx, turn, cfg, func(c llm.Chunk) {
		switch {
		case c.Err != nil:
			streamErr = c.Err
		case c.Done:
			fmt.Print("\n\n")
		default:
			fmt.Print(c.Content)
			b.WriteString(c.Content)
		}
	})
	if err != nil {
		return "", err
	}
	if streamErr != nil {
		return "", streamErr
	}
	return b.String(), nil
}

// CatalogAdd inserts or replaces a catalog item.
func CatalogAdd(ctx context.Context, dbPath, scope, name, sku string, stock int, unit string) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	item := inventoryItem(name, sku, stock, unit)
	if err := store.UpsertItem(ctx, scope, item); err != nil {
		return err
	}
	fmt.Printf("Added %s (%s): %d %s\n", name, sku, stock, item.Unit)
	return nil
}

// CatalogList prints the catalog for a scope.
func CatalogList(ctx context.Context, dbPath, scope string) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	items, err := store.ListCatalog(ctx, scope)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}
	for _, it := range items {
		fmt.Printf("%-12s %-24s %6d %s\n", it.SKU, it.ProductName, it.AvailableStock, it.Unit)
	}
	return nil
}

// CatalogSetStock sets an item's absolute stock level.
func CatalogSetStock(ctx context.Context, dbPath, scope, sku string, stock int) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if err := store.SetStock(ctx, scope, sku, stock); err != nil {
		return err
	}
	fmt.Printf("Stock for %s set to %d\n", sku, stock)
	return nil
}

// OrdersList prints all recorded orders, newest first.
func OrdersList(ctx context.Context, dbPath string) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	orders, err := store.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders recorded.")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("%-36s %-10s %4d x %-24s %q\n", o.ID, o.Status, o.RequestedQty, o.ProductName, o.SourceQuery)
	}
	return nil
}

// OrderSetStatus applies a status transition to an order.
func OrderSetStatus(ctx context.Context, dbPath, id, status string) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	st, err := parseStatus(status)
	if err != nil {
		return err
	}
	if err := store.UpdateOrderStatus(ctx, id, st); err != nil {
		return err
	}
	fmt.Printf("Order %s is now %s\n", id, st)
	return nil
}

func inventoryItem(name, sku string, stock int, unit string) inventory.CatalogItem {
	if unit == "" {
		unit = "pcs"
	}
	return inventory.CatalogItem{ProductName: name, SKU: sku, AvailableStock: stock, Unit: unit}
}

func parseStatus(s string) (inventory.OrderStatus, error) {
	return inventory.ParseOrderStatus(strings.ToLower(strings.TrimSpace(s)))
}

func openStore(settings config.Settings, dbPath string) (storage.Store, error) {
	if dbPath == "" {
		dbPath = settings.Store.Path
	}
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
