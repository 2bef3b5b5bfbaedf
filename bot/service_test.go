package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukaanlabs/dukaanbot/intent"
	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
	"github.com/dukaanlabs/dukaanbot/storage"
)

// stubProvider is a scriptable llm.Provider that records what it was
// called with.
type stubProvider struct {
	name         string
	reply        llm.Reply
	err          error
	chunks       []llm.Chunk
	calls        int
	lastMessages []llm.Message
	lastOpts     llm.Options
}

func (p *stubProvider) Name() string         { return p.name }
func (p *stubProvider) DefaultModel() string { return "stub-model" }

func (p *stubProvider) Generate(_ context.Context, messages []llm.Message, opts llm.Options) (llm.Reply, error) {
	p.calls++
	p.lastMessages = messages
	p.lastOpts = opts
	if p.err != nil {
		return llm.Reply{}, p.err
	}
	return p.reply, nil
}

func (p *stubProvider) GenerateStream(_ context.Context, messages []llm.Message, opts llm.Options, emit llm.ChunkFunc) error {
	p.calls++
	p.lastMessages = messages
	p.lastOpts = opts
	if p.err != nil {
		return p.err
	}
	for _, c := range p.chunks {
		emit(c)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testHarness wires a Service over stub providers and an in-memory store.
type testHarness struct {
	svc        *Service
	chat       *stubProvider
	classifier *stubProvider
	store      *storage.Memory
}

// newHarness builds a Service whose intent resolver replies with
// classifierJSON and whose chat provider replies with chatReply.
func newHarness(t *testing.T, classifierJSON, chatReply string, catalog []inventory.CatalogItem) *testHarness {
	t.Helper()
	log := testLogger()

	chat := &stubProvider{name: "stub", reply: llm.Reply{Content: chatReply, Model: "stub-model"}}
	classifier := &stubProvider{name: "classifier", reply: llm.Reply{Content: classifierJSON}}

	registry := llm.NewRegistry("stub", log)
	registry.Register(chat)

	resolver := intent.NewResolver(classifier, llm.Options{}, log)

	store := storage.NewMemory()
	ctx := context.Background()
	for _, it := range catalog {
		if err := store.UpsertItem(ctx, DefaultCatalogScope, it); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	return &testHarness{
		svc:        NewService(registry, resolver, store, log),
		chat:       chat,
		classifier: classifier,
		store:      store,
	}
}

func userTurn(text string) []llm.Message {
	return []llm.Message{llm.UserMessage(text)}
}

func invConfig() Config {
	return Config{Provider: "stub", InventoryEnabled: true}
}

func TestStockCheckAvailable(t *testing.T) {
	h := newHarness(t,
		`{"intent":"stock_check","productName":"Laptop"}`,
		"unused",
		[]inventory.CatalogItem{{ProductName: "Laptop", SKU: "LT-14", AvailableStock: 5, Unit: "pcs"}})

	res, err := h.svc.HandleTurn(context.Background(), userTurn("Do you have laptops in stock?"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !strings.Contains(res.Reply, "5") || !strings.Contains(res.Reply, "available") {
		t.Errorf("reply must mention count and availability, got %q", res.Reply)
	}
	if res.Order != nil {
		t.Errorf("stock check must not create an order, got %+v", res.Order)
	}
	if h.chat.calls != 0 {
		t.Errorf("templated branch must not call the chat provider, got %d calls", h.chat.calls)
	}
}

func TestStockCheckNotFound(t *testing.T) {
	h := newHarness(t,
		`{"intent":"stock_check","productName":"washing machine"}`,
		"unused",
		[]inventory.CatalogItem{{ProductName: "Laptop", SKU: "LT-14", AvailableStock: 5}})

	res, err := h.svc.HandleTurn(context.Background(), userTurn("Do you sell washing machines?"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !strings.Contains(res.Reply, "don't have") {
		t.Errorf("expected not-found reply, got %q", res.Reply)
	}
}

func TestStockCheckOutOfStock(t *testing.T) {
	h := newHarness(t,
		`{"intent":"stock_check","productName":"Printer"}`,
		"unused",
		[]inventory.CatalogItem{{ProductName: "Printer", SKU: "PR-1", AvailableStock: 0}})

	res, err := h.svc.HandleTurn(context.Background(), userTurn("Any printers in stock?"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !strings.Contains(res.Reply, "out of stock") {
		t.Errorf("expected out-of-stock reply, got %q", res.Reply)
	}
}

func TestOrderConfirmedDecrementsStock(t *testing.T) {
	h := newHarness(t,
		`{"intent":"order","productName":"Printer","quantity":3}`,
		"unused",
		[]inventory.CatalogItem{{ProductName: "Printer", SKU: "PR-1", AvailableStock: 10}})
	ctx := context.Background()

	res, err := h.svc.HandleTurn(ctx, userTurn("I want to order 3 printers"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Order == nil {
		t.Fatal("expected an order record")
	}
	if res.Order.Status != inventory.OrderConfirmed || res.Order.RequestedQty != 3 {
		t.Errorf("order = %+v, want confirmed qty 3", res.Order)
	}
	if res.Order.SourceQuery != "I want to order 3 printers" {
		t.Errorf("source query = %q", res.Order.SourceQuery)
	}
	if !strings.Contains(res.Reply, "confirmed") {
		t.Errorf("expected confirmation reply, got %q", res.Reply)
	}

	catalog, _ := h.store.ListCatalog(ctx, DefaultCatalogScope)
	if catalog[0].AvailableStock != 7 {
		t.Errorf("stock after order = %d, want 7", catalog[0].AvailableStock)
	}
	orders, _ := h.store.ListOrders(ctx)
	if len(orders) != 1 || orders[0].Status != inventory.OrderConfirmed {
		t.Errorf("persisted orders = %+v", orders)
	}
}

func TestOrderPartialStockHindi(t *testing.T) {
	h := newHarness(t,
		`{"intent":"order","productName":"Mobile Phone","quantity":2}`,
		"unused",
		[]inventory.CatalogItem{{ProductName: "Mobile Phone", SKU: "MP-1", AvailableStock: 1}})
	ctx := context.Background()

	res, err := h.svc.HandleTurn(ctx, userTurn("मुझे 2 मोबाइल फोन चाहिए"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Order != nil {
		t.Errorf("partial stock must not create an order, got %+v", res.Order)
	}
	if !strings.Contains(res.Reply, "1") {
		t.Errorf("reply must offer the available count, got %q", res.Reply)
	}
	if intent.DetectLanguage(res.Reply) != intent.Hindi {
		t.Errorf("reply must be in Hindi, got %q", res.Reply)
	}

	catalog, _ := h.store.ListCatalog(ctx, DefaultCatalogScope)
	if catalog[0].AvailableStock != 1 {
		t.Errorf("stock must be untouched, got %d", catalog[0].AvailableStock)
	}
	orders, _ := h.store.ListOrders(ctx)
	if len(orders) != 0 {
		t.Errorf("no order may be persisted, got %+v", orders)
	}
}

func TestOrderOutOfStock(t *testing.T) {
	h := newHarness(t,
		`{"intent":"order","productName":"Printer","quantity":2}`,
		"unused",
		[]inventory.CatalogItem{{ProductName: "Printer", SKU: "PR-1", AvailableStock: 0}})

	res, err := h.svc.HandleTurn(context.Background(), userTurn("Two printers please"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Order != nil {
		t.Error("zero stock must not create an order")
	}
	if !strings.Contains(res.Reply, "out of stock") {
		t.Errorf("expected out-of-stock reply, got %q", res.Reply)
	}
}

func TestOtherIntentFallsThroughWithInventoryContext(t *testing.T) {
	h := newHarness(t,
		`{"intent":"other"}`,
		"We open at 9am.",
		[]inventory.CatalogItem{{ProductName: "Laptop", SKU: "LT-14", AvailableStock: 5, Unit: "pcs"}})

	res, err := h.svc.HandleTurn(context.Background(), userTurn("When do you open?"), invConfig())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Reply != "We open at 9am." {
		t.Errorf("reply = %q", res.Reply)
	}
	if h.chat.calls != 1 {
		t.Fatalf("chat provider calls = %d, want 1", h.chat.calls)
	}
	last := h.chat.lastMessages[len(h.chat.lastMessages)-1]
	if last.Role != llm.RoleUser || !strings.Contains(last.Content, "Current inventory") {
		t.Errorf("last user message must carry inventory context, got %+v", last)
	}
	if !strings.Contains(last.Content, "Laptop: 5 pcs in stock") {
		t.Errorf("inventory context missing catalog line, got %q", last.Content)
	}
}

func TestResolverFailureFallsBackToProvider(t *testing.T) {
	h := newHarness(t, "", "Plain reply.", nil)
	h.classifier.err = errors.New("classifier down")

	res, err := h.svc.HandleTurn(context.Background(), userTurn("Do you have laptops?"), invConfig())
	if err != nil {
		t.Fatalf("resolver failure must not abort the turn: %v", err)
	}
	if res.Reply != "Plain reply." {
		t.Errorf("reply = %q, want provider fallback", res.Reply)
	}
}

func TestInventoryDisabledSkipsResolver(t *testing.T) {
	h := newHarness(t, `{"intent":"stock_check","productName":"Laptop"}`, "Direct reply.", nil)

	cfg := Config{Provider: "stub"}
	res, err := h.svc.HandleTurn(context.Background(), userTurn("Do you have laptops?"), cfg)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Reply != "Direct reply." {
		t.Errorf("reply = %q", res.Reply)
	}
	if h.classifier.calls != 0 {
		t.Errorf("resolver must not run when inventory is disabled, got %d calls", h.classifier.calls)
	}
}

func TestProviderFailurePropagates(t *testing.T) {
	h := newHarness(t, `{"intent":"other"}`, "", nil)
	h.chat.err = &llm.Error{Kind: llm.KindRateLimited, Provider: "stub"}

	_, err := h.svc.HandleTurn(context.Background(), userTurn("Hello"), invConfig())
	if llm.KindOf(err) != llm.KindRateLimited {
		t.Errorf("provider failure must propagate classified, got %v", err)
	}
}

func TestHandleInventoryTurnGenericHelp(t *testing.T) {
	h := newHarness(t, `{"intent":"other"}`, "unused", nil)

	reply, order, err := h.svc.HandleInventoryTurn(context.Background(), "Tell me a joke", nil)
	if err != nil {
		t.Fatalf("HandleInventoryTurn: %v", err)
	}
	if order != nil {
		t.Errorf("generic turn must not create an order, got %+v", order)
	}
	if !strings.Contains(reply, "help") {
		t.Errorf("expected generic help reply, got %q", reply)
	}
}

func TestHandleInventoryTurnResolverErrorPropagates(t *testing.T) {
	h := newHarness(t, "", "unused", nil)
	h.classifier.err = errors.New("classifier down")

	_, _, err := h.svc.HandleInventoryTurn(context.Background(), "Do you have laptops?", nil)
	if err == nil {
		t.Fatal("expected resolver error to propagate")
	}
}

func TestSystemMessageSynthesis(t *testing.T) {
	h := newHarness(t, "", "ok", nil)
	cfg := Config{Provider: "stub"}

	if _, err := h.svc.GenerateResponse(context.Background(), userTurn("hi"), cfg); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if h.chat.lastMessages[0].Role != llm.RoleSystem {
		t.Fatalf("first message role = %s, want system", h.chat.lastMessages[0].Role)
	}
	if h.chat.lastMessages[0].Content == "" {
		t.Error("synthesized system prompt is empty")
	}

	// Explicit prompt wins.
	cfg.SystemPrompt = "You are a pirate."
	if _, err := h.svc.GenerateResponse(context.Background(), userTurn("hi"), cfg); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if h.chat.lastMessages[0].Content != "You are a pirate." {
		t.Errorf("system prompt = %q", h.chat.lastMessages[0].Content)
	}

	// A history that already carries a system message is left alone.
	history := []llm.Message{llm.SystemMessage("existing"), llm.UserMessage("hi")}
	if _, err := h.svc.GenerateResponse(context.Background(), history, cfg); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if len(h.chat.lastMessages) != 2 || h.chat.lastMessages[0].Content != "existing" {
		t.Errorf("existing system message must be preserved, got %+v", h.chat.lastMessages)
	}
}

func TestBotRoleMappedToAssistant(t *testing.T) {
	h := newHarness(t, "", "ok", nil)
	history := []llm.Message{
		llm.UserMessage("hi"),
		{Role: llm.RoleBot, Content: "hello"},
		llm.UserMessage("how are you"),
	}

	if _, err := h.svc.GenerateResponse(context.Background(), history, Config{Provider: "stub"}); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	for _, m := range h.chat.lastMessages {
		if m.Role == llm.RoleBot {
			t.Errorf("bot role leaked to provider: %+v", m)
		}
	}
	if h.chat.lastMessages[2].Role != llm.RoleAssistant {
		t.Errorf("mapped role = %s, want assistant", h.chat.lastMessages[2].Role)
	}
}

func TestHindiDefaultPrompt(t *testing.T) {
	h := newHarness(t, "", "ok", nil)

	if _, err := h.svc.GenerateResponse(context.Background(), userTurn("नमस्ते"), Config{Provider: "stub"}); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	sys := h.chat.lastMessages[0].Content
	if intent.DetectLanguage(sys) != intent.Hindi {
		t.Errorf("Hindi turn should get a Hindi default prompt, got %q", sys)
	}
}

func TestGenerateStreamingResponse(t *testing.T) {
	h := newHarness(t, "", "", nil)
	h.chat.chunks = []llm.Chunk{
		{Content: "Hel"},
		{Content: "lo"},
		{Done: true},
	}

	var got []llm.Chunk
	err := h.svc.GenerateStreamingResponse(context.Background(), userTurn("hi"), Config{Provider: "stub"}, func(c llm.Chunk) {
		got = append(got, c)
	})
	if err != nil {
		t.Fatalf("GenerateStreamingResponse: %v", err)
	}
	if len(got) != 3 || !got[2].Done {
		t.Fatalf("chunks = %+v", got)
	}
	if got[0].Content+got[1].Content != "Hello" {
		t.Errorf("assembled = %q", got[0].Content+got[1].Content)
	}
}

func TestOptionsForwarded(t *testing.T) {
	h := newHarness(t, "", "ok", nil)
	cfg := Config{Provider: "stub", Model: "stub-xl", Temperature: 0.3, MaxTokens: 256}

	if _, err := h.svc.GenerateResponse(context.Background(), userTurn("hi"), cfg); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if h.chat.lastOpts.Model != "stub-xl" || h.chat.lastOpts.Temperature != 0.3 || h.chat.lastOpts.MaxTokens != 256 {
		t.Errorf("options = %+v", h.chat.lastOpts)
	}
}
