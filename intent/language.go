// Reply-language detection.
//
// Applies to the templated reply only, never to the intent JSON: the
// classifier reads the utterance as-is. The heuristic is deliberately light,
// matching how the shop operators' customers actually write — Hindi turns
// always carry Devanagari, everything else is answered in English.

package intent

// Language selects which reply template set the orchestrator uses.
type Language string

const (
	// English is the default reply language.
	English Language = "en"
	// Hindi is selected when the utterance contains Devanagari text.
	Hindi Language = "hi"
)

// DetectLanguage returns Hindi when any code point of s falls in the
// Devanagari Unicode block (U+0900 to U+097F), English otherwise.
func DetectLanguage(s string) Language {
	for _, r := range s {
		if r >= 0x0900 && r <= 0x097F {
			return Hindi
		}
	}
	return English
}
