package categorize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
)

type fakeGenerator struct {
	answer string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func TestSuggest_NormalizesAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
		source Source
	}{
		{"exact key", "food", "food", SourceModel},
		{"upper case key", "RENT", "rent", SourceModel},
		{"label", "Utility", "utility", SourceModel},
		{"quoted with period", "\"college\".", "college", SourceModel},
		{"fenced", "```\nfood\n```", "food", SourceModel},
		{"bullet", "- rent", "rent", SourceModel},
		{"unknown", "groceries", domain.OtherCategoryKey, SourceFallback},
		{"empty", "   ", domain.OtherCategoryKey, SourceFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSuggester(&fakeGenerator{answer: tt.answer})
			got, err := s.Suggest(context.Background(), Request{PayeeName: "Zomato", PayeeAddress: "zomato@hdfcbank"}, categories.Defaults())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.CategoryKey)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestSuggest_PromptListsKeys(t *testing.T) {
	gen := &fakeGenerator{answer: "food"}
	cats := []domain.Category{{Key: "eating-out", Label: "Eating Out"}, {Key: "other", Label: "Other"}}

	_, err := NewSuggester(gen).Suggest(context.Background(), Request{
		PayeeName:            "Cafe",
		PayeeAddress:         "cafe@okicici",
		Note:                 "coffee",
		MerchantCategoryCode: "5814",
	}, cats)
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "- eating-out (Eating Out)")
	assert.Contains(t, gen.prompt, "note: coffee")
	assert.Contains(t, gen.prompt, "5814")
}

func TestSuggest_Fallbacks(t *testing.T) {
	got, err := NewSuggester(nil).Suggest(context.Background(), Request{}, categories.Defaults())
	require.NoError(t, err)
	assert.Equal(t, Suggestion{CategoryKey: "other", Source: SourceFallback}, got)

	got, err = NewSuggester(&fakeGenerator{err: errors.New("quota")}).Suggest(context.Background(), Request{}, categories.Defaults())
	assert.ErrorContains(t, err, "quota")
	assert.Equal(t, "other", got.CategoryKey)
}
