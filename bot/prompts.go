package bot

import (
	"fmt"
	"strings"

	"github.com/dukaanlabs/dukaanbot/intent"
	"github.com/dukaanlabs/dukaanbot/inventory"
	"github.com/dukaanlabs/dukaanbot/llm"
)

const (
	assistantPrompt = "You are a helpful assistant. Answer clearly and concisely."

	assistantPromptHindi = "आप एक सहायक असिस्टेंट हैं। स्पष्ट और संक्षिप्त उत्तर दें। उपयोगकर्ता हिंदी में लिख रहा है, इसलिए हिंदी में उत्तर दें।"

	shopAssistantPrompt = "You are a shop assistant for a small retail store. " +
		"Help customers with product questions, stock availability, and orders. " +
		"Be friendly and concise. If the customer writes in Hindi, reply in Hindi."

	shopAssistantPromptHindi = "आप एक छोटी रिटेल दुकान के सहायक हैं। " +
		"ग्राहकों की उत्पाद, स्टॉक और ऑर्डर से जुड़े सवालों में मदद करें। " +
		"उपयोगकर्ता हिंदी में लिख रहा है, इसलिए हिंदी में उत्तर दें।"
)

// systemPrompt picks the system message for a turn. An explicit
// configuration prompt wins; otherwise the default is chosen by the
// turn's language and whether inventory handling is on.
func systemPrompt(cfg Config, lang intent.Language) string {
	if cfg.SystemPrompt != "" {
		return cfg.SystemPrompt
	}
	if cfg.InventoryEnabled {
		if lang == intent.Hindi {
			return shopAssistantPromptHindi
		}
		return shopAssistantPrompt
	}
	if lang == intent.Hindi {
		return assistantPromptHindi
	}
	return assistantPrompt
}

// inventoryContext renders the catalog as plain text suitable for
// appending to a user message so the model can answer free-form
// inventory questions.
func inventoryContext(catalog []inventory.CatalogItem) string {
	if len(catalog) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Current inventory:\n")
	for _, it := range catalog {
		unit := it.Unit
		if unit == "" {
			unit = "units"
		}
		fmt.Fprintf(&b, "- %s: %d %s in stock\n", it.ProductName, it.AvailableStock, unit)
	}
	return strings.TrimRight(b.String(), "\n")
}

// appendInventoryContext returns a copy of history with the catalog
// appended to the last user message. The input slice is not modified.
func appendInventoryContext(history []llm.Message, catalog []inventory.CatalogItem) []llm.Message {
	ctxText := inventoryContext(catalog)
	if ctxText == "" {
		return history
	}
	out := make([]llm.Message, len(history))
	copy(out, history)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == llm.RoleUser {
			out[i].Content = out[i].Content + "\n\n" + ctxText
			break
		}
	}
	return out
}

// lastUserContent returns the content of the most recent user message, or
// empty when the history holds none.
func lastUserContent(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
