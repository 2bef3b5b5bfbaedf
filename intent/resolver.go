// Package intent classifies user utterances for the inventory pipeline.
//
// A single LLM call with a fixed instruction prompt labels each utterance as
// a stock question, an order, or anything else, and pulls out the product
// name and quantity. The model's output is free text, so parsing is
// best-effort: anything unparseable degrades to the "other" intent instead
// of failing the turn.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukaanlabs/dukaanbot/internal/llmjson"
	"github.com/dukaanlabs/dukaanbot/llm"
)

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	// IntentStockCheck asks whether or how much of a product is in stock.
	IntentStockCheck Intent = "stock_check"
	// IntentOrder wants to buy a specific quantity of a product.
	IntentOrder Intent = "order"
	// IntentOther is everything else, including unparseable classifier
	// output.
	IntentOther Intent = "other"
)

// Result is the ephemeral classification of one utterance. Produced fresh
// per turn, never persisted.
type Result struct {
	Intent Intent `json:"intent"`
	// ProductName is empty when the utterance names no product.
	ProductName string `json:"productName"`
	// Quantity is zero when absent; always non-negative.
	Quantity int `json:"quantity"`
}

// classifierPrompt is the fixed instruction sent as the system message. The
// examples cover both languages the shops serve; classification output is
// always the same JSON shape regardless of input language.
const classifierPrompt = `You classify customer messages for a shop assistant.
Reply with ONLY a JSON object, no other text:
{"intent": "stock_check" | "order" | "other", "productName": string or null, "quantity": number or null}

Rules:
- "stock_check": the customer asks whether or how much of a product is available.
- "order": the customer wants to buy or order a quantity of a product.
- "other": greetings, questions about the shop, anything else.
- productName: the product mentioned, in English if possible, else as written.
- quantity: only for orders, as a positive number.

Examples:
"Do you have laptops in stock?" -> {"intent": "stock_check", "productName": "Laptop", "quantity": null}
"I want to order 3 printers" -> {"intent": "order", "productName": "Printer", "quantity": 3}
"क्या आपके पास LED बल्ब है?" -> {"intent": "stock_check", "productName": "LED Bulb", "quantity": null}
"मुझे 2 मोबाइल फोन चाहिए" -> {"intent": "order", "productName": "Mobile Phone", "quantity": 2}
"What are your opening hours?" -> {"intent": "other", "productName": null, "quantity": null}`

// Resolver classifies utterances through an LLM provider.
type Resolver struct {
	provider llm.Provider
	opts     llm.Options
	log      *slog.Logger
}

// NewResolver creates a resolver. The provider is typically the registry's
// default wrapped with the retry policy; opts pins the classifier model and
// a low temperature.
func NewResolver(provider llm.Provider, opts llm.Options, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{provider: provider, opts: opts, log: log}
}

// Resolve classifies one utterance. A provider failure is returned to the
// caller (the orchestrator falls back to the plain chat path); malformed
// classifier output is not an error and yields the "other" intent.
func (r *Resolver) Resolve(ctx context.Context, utterance string) (Result, error) {
	messages := []llm.Message{
		llm.SystemMessage(classifierPrompt),
		llm.UserMessage(utterance),
	}

	reply, err := r.provider.Generate(ctx, messages, r.opts)
	if err != nil {
		return Result{}, fmt.Errorf("intent classification call: %w", err)
	}

	return r.parse(reply.Content), nil
}

// wireResult tolerates the shapes models actually produce: quantity may be a
// number, a numeric string, or null.
type wireResult struct {
	Intent      string `json:"intent"`
	ProductName string `json:"productName"`
	Quantity    any    `json:"quantity"`
}

func (r *Resolver) parse(text string) Result {
	raw, err := llmjson.Unmarshal[wireResult](text)
	if err != nil {
		r.log.Warn("intent output unparseable, degrading to other", "error", err)
		return Result{Intent: IntentOther}
	}

	result := Result{
		Intent:      normalizeIntent(raw.Intent),
		ProductName: raw.ProductName,
		Quantity:    coerceQuantity(raw.Quantity),
	}
	return result
}

func normalizeIntent(s string) Intent {
	switch Intent(s) {
	case IntentStockCheck, IntentOrder:
		return Intent(s)
	default:
		return IntentOther
	}
}

func coerceQuantity(v any) int {
	var qty int
	switch n := v.(type) {
	case float64:
		qty = int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			qty = int(i)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			qty = i
		}
	}
	if qty < 0 {
		return 0
	}
	return qty
}
