package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukaanlabs/dukaanbot/intent"
	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
	"github.com/dukaanlabs/dukaanbot/storage"
)

// Service orchestrates conversational turns. Provider failures propagate
// to the caller; intent-resolution failures degrade to the plain provider
// path within the turn.
type Service struct {
	registry *llm.Registry
	resolver *intent.Resolver
	store    storage.Store
	log      *slog.Logger
}

// TurnResult is what a completed turn produced. Model and Usage are set
// only when the provider path generated the reply; Order is set only when
// the turn confirmed an order.
type TurnResult struct {
	Reply string
	Model string
	Usage *llm.Usage
	Order *inventory.OrderRecord
}

func NewService(registry *llm.Registry, resolver *intent.Resolver, store storage.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		registry: registry,
		resolver: resolver,
		store:    store,
		log:      log,
	}
}

// GenerateResponse forwards the history to the selected provider and
// returns its reply. A system message is synthesized when the history
// carries none.
func (s *Service) GenerateResponse(ctx context.Context, history []llm.Message, cfg Config) (llm.Reply, error) {
	provider := s.registry.Select(cfg.Provider)
	if provider == nil {
		return llm.Reply{}, fmt.Errorf("no provider registered for %q and no default configured", cfg.Provider)
	}
	return provider.Generate(ctx, s.prepareMessages(history, cfg), cfg.options())
}

// GenerateStreamingResponse is the streaming variant of GenerateResponse.
// The sink receives at most one terminator: a Done chunk on success or a
// single Err chunk carried inline by the retry layer.
func (s *Service) GenerateStreamingResponse(ctx context.Context, history []llm.Message, cfg Config, emit llm.ChunkFunc) error {
	provider := s.registry.Select(cfg.Provider)
	if provider == nil {
		return fmt.Errorf("no provider registered for %q and no default configured", cfg.Provider)
	}
	return provider.GenerateStream(ctx, s.prepareMessages(history, cfg), cfg.options(), emit)
}

// ResolveIntent classifies a single utterance.
func (s *Service) ResolveIntent(ctx context.Context, utterance string) (intent.Result, error) {
	return s.resolver.Resolve(ctx, utterance)
}

// HandleInventoryTurn answers one utterance against a catalog snapshot.
// It classifies the utterance, matches the product, and renders the
// templated reply in the utterance's language. A confirmed order is
// persisted, decrements stock, and is returned alongside the reply.
// Utterances outside the stock/order intents get the generic help reply.
func (s *Service) HandleInventoryTurn(ctx context.Context, utterance string, catalog []inventory.CatalogItem) (string, *inventory.OrderRecord, error) {
	res, err := s.resolver.Resolve(ctx, utterance)
	if err != nil {
		return "", nil, fmt.Errorf("resolve intent: %w", err)
	}
	lang := intent.DetectLanguage(utterance)
	reply, order, err := s.dispatchIntent(ctx, DefaultCatalogScope, utterance, res, lang, catalog)
	if err != nil {
		return "", nil, err
	}
	if reply == "" {
		return replyGenericHelp(lang), nil, nil
	}
	return reply, order, nil
}

// HandleTurn runs the full per-turn state machine. With inventory
// disabled the history goes straight to the provider. Otherwise the last
// user utterance is classified; stock and order intents get templated
// replies, everything else falls through to the provider with the catalog
// appended to the last user message.
func (s *Service) HandleTurn(ctx context.Context, history []llm.Message, cfg Config) (TurnResult, error) {
	if !cfg.InventoryEnabled {
		return s.providerTurn(ctx, history, cfg)
	}

	utterance := lastUserContent(history)
	if utterance == "" {
		return s.providerTurn(ctx, history, cfg)
	}

	catalog, err := s.store.ListCatalog(ctx, cfg.scope())
	if err != nil {
		s.log.Warn("catalog unavailable, using provider path",
			slog.String("scope", cfg.scope()),
			slog.String("error", err.Error()))
		return s.providerTurn(ctx, history, cfg)
	}

	res, err := s.resolver.Resolve(ctx, utterance)
	if err != nil {
		s.log.Warn("intent resolution failed, using provider path",
			slog.String("error", err.Error()))
		return s.providerTurn(ctx, history, cfg)
	}

	lang := intent.DetectLanguage(utterance)
	reply, order, err := s.dispatchIntent(ctx, cfg.scope(), utterance, res, lang, catalog)
	if err != nil {
		return TurnResult{}, err
	}
	if reply != "" {
		return TurnResult{Reply: reply, Order: order}, nil
	}

	// Generic intent or missing fields: let the model answer, with the
	// catalog in view.
	return s.providerTurn(ctx, appendInventoryContext(history, catalog), cfg)
}

// dispatchIntent renders the templated reply for stock and order intents.
// An empty reply means the intent (or its required fields) did not select
// a template and the caller decides the fallback.
func (s *Service) dispatchIntent(ctx context.Context, scope, utterance string, res intent.Result, lang intent.Language, catalog []inventory.CatalogItem) (string, *inventory.OrderRecord, error) {
	switch {
	case res.Intent == intent.IntentStockCheck && res.ProductName != "":
		match := inventory.BestMatch(catalog, res.ProductName)
		if match == nil {
			return replyNotFound(lang, res.ProductName), nil, nil
		}
		if match.AvailableStock > 0 {
			return replyInStock(lang, match.ProductName, match.AvailableStock), nil, nil
		}
		return replyOutOfStock(lang, match.ProductName), nil, nil

	case res.Intent == intent.IntentOrder && res.ProductName != "" && res.Quantity > 0:
		match := inventory.BestMatch(catalog, res.ProductName)
		if match == nil {
			return replyNotFound(lang, res.ProductName), nil, nil
		}
		if match.AvailableStock == 0 {
			return replyOutOfStock(lang, match.ProductName), nil, nil
		}
		if match.AvailableStock < res.Quantity {
			return replyPartialStock(lang, match.ProductName, match.AvailableStock), nil, nil
		}
		order, err := s.confirmOrder(ctx, scope, utterance, res, match)
		if err != nil {
			if errors.Is(err, storage.ErrInsufficientStock) {
				// Stock moved under us between the snapshot and the
				// guarded decrement. Treat it like partial stock.
				return replyPartialStock(lang, match.ProductName, match.AvailableStock), nil, nil
			}
			return "", nil, err
		}
		return replyOrderConfirmed(lang, match.ProductName, res.Quantity), order, nil
	}
	return "", nil, nil
}

// confirmOrder decrements stock and persists the confirmed record. The
// guarded decrement is what enforces availableStock >= requestedQty at
// evaluation time.
func (s *Service) confirmOrder(ctx context.Context, scope, utterance string, res intent.Result, match *inventory.CatalogItem) (*inventory.OrderRecord, error) {
	if err := s.store.DecrementStock(ctx, scope, match.SKU, res.Quantity); err != nil {
		return nil, fmt.Errorf("decrement stock for %s: %w", match.SKU, err)
	}
	rec := inventory.OrderRecord{
		ProductName:  match.ProductName,
		RequestedQty: res.Quantity,
		SourceQuery:  utterance,
		Status:       inventory.OrderConfirmed,
	}
	id, err := s.store.CreateOrder(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	rec.ID = id
	s.log.Info("order confirmed",
		slog.String("order_id", id),
		slog.String("product", match.ProductName),
		slog.Int("quantity", res.Quantity))
	return &rec, nil
}

func (s *Service) providerTurn(ctx context.Context, history []llm.Message, cfg Config) (TurnResult, error) {
	reply, err := s.GenerateResponse(ctx, history, cfg)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Reply: reply.Content, Model: reply.Model, Usage: reply.Usage}, nil
}

// prepareMessages maps stored roles onto vendor roles and prepends a
// system message when the history has none.
func (s *Service) prepareMessages(history []llm.Message, cfg Config) []llm.Message {
	lang := intent.DetectLanguage(lastUserContent(history))

	msgs := make([]llm.Message, 0, len(history)+1)
	if len(history) == 0 || history[0].Role != llm.RoleSystem {
		msgs = append(msgs, llm.SystemMessage(systemPrompt(cfg, lang)))
	}
	for _, m := range history {
		if m.Role == llm.RoleBot {
			m.Role = llm.RoleAssistant
		}
		msgs = append(msgs, m)
	}
	return msgs
}
