package pipeline

import (
	"context"

	"github.com/dvloznov/upi-tracker/internal/categorize"
	"github.com/dvloznov/upi-tracker/internal/domain"
)

// CategoryLister provides the categories rows are validated against.
type CategoryLister interface {
	List(ctx context.Context) []domain.Category
}

// CategorySuggester fills in the category of rows that have none.
type CategorySuggester interface {
	Suggest(ctx context.Context, req categorize.Request, cats []domain.Category) (categorize.Suggestion, error)
}

var _ CategorySuggester = (*categorize.Suggester)(nil)
