// Package categorize suggests a category for a payment from the payee,
// note and merchant code, using a language model constrained to the user's
// own category keys.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

// Source says where a suggestion came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Request describes the payment being categorised.
type Request struct {
	PayeeName            string `json:"payeeName"`
	PayeeAddress         string `json:"payeeAddress"`
	Note                 string `json:"note,omitempty"`
	MerchantCategoryCode string `json:"merchantCategoryCode,omitempty"`
}

// Suggestion is always a key from the category list passed in, or "other".
type Suggestion struct {
	CategoryKey string `json:"categoryKey"`
	Source      Source `json:"source"`
	Raw         string `json:"raw,omitempty"`
}

// Suggester picks categories with a Generator.
type Suggester struct {
	gen Generator
}

// NewSuggester wraps gen. A nil gen makes every suggestion fall back.
func NewSuggester(gen Generator) *Suggester {
	return &Suggester{gen: gen}
}

// Suggest asks the model for one key out of cats. The error is non-nil only
// when the model call itself failed; the returned suggestion is usable
// either way.
func (s *Suggester) Suggest(ctx context.Context, req Request, cats []domain.Category) (Suggestion, error) {
	fallback := Suggestion{CategoryKey: domain.OtherCategoryKey, Source: SourceFallback}
	if s.gen == nil || len(cats) == 0 {
		return fallback, nil
	}

	raw, err := s.gen.Generate(ctx, buildPrompt(req, cats))
	if err != nil {
		return fallback, fmt.Errorf("Suggest: %w", err)
	}

	key, ok := normalize(raw, cats)
	if !ok {
		log := logger.FromContext(ctx)
		log.Debug().
			Str("payee", req.PayeeAddress).
			Str("answer", raw).
			Msg("Model answer did not match a category")
		fallback.Raw = raw
		return fallback, nil
	}
	return Suggestion{CategoryKey: key, Source: SourceModel, Raw: raw}, nil
}

func buildPrompt(req Request, cats []domain.Category) string {
	var b strings.Builder
	b.WriteString("You categorise UPI payments made in India.\n\n")
	b.WriteString("Payment:\n")
	fmt.Fprintf(&b, "  payee name: %s\n", req.PayeeName)
	fmt.Fprintf(&b, "  UPI ID: %s\n", req.PayeeAddress)
	if req.Note != "" {
		fmt.Fprintf(&b, "  note: %s\n", req.Note)
	}
	if req.MerchantCategoryCode != "" {
		fmt.Fprintf(&b, "  merchant category code (ISO 18245): %s\n", req.MerchantCategoryCode)
	}

	b.WriteString("\nUse ONLY the following category keys:\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "  - %s (%s)\n", c.Key, c.Label)
	}
	fmt.Fprintf(&b, "\nIf unsure, answer %q.\n", domain.OtherCategoryKey)
	b.WriteString("Answer with the key only. No punctuation, no explanation.\n")
	return b.String()
}

// normalize maps a model answer onto a known key, matching keys first and
// labels second, both case-insensitively.
func normalize(raw string, cats []domain.Category) (string, bool) {
	answer := cleanAnswer(raw)
	if answer == "" {
		return "", false
	}
	for _, c := range cats {
		if strings.EqualFold(c.Key, answer) {
			return c.Key, true
		}
	}
	for _, c := range cats {
		if strings.EqualFold(c.Label, answer) {
			return c.Key, true
		}
	}
	return "", false
}

func cleanAnswer(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[:i]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	return strings.Trim(strings.TrimSpace(s), "\"'`.*")
}
