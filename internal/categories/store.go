// Package categories stores the user's spending categories. Records refer to
// categories by key only, so deleting a category never touches the ledger and
// unknown keys resolve to the "other" sentinel.
package categories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

var (
	ErrInvalidLabel = errors.New("category label must not be blank")
	ErrInvalidIcon  = errors.New("category icon is not in the allowed set")
	ErrInvalidColor = errors.New("category color must be a #RRGGBB hex string")
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hexColor      = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Store persists categories under a single key.
type Store struct {
	kv  kvstore.Store
	log zerolog.Logger
}

// NewStore creates a category store over kv.
func NewStore(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// NewCategory is the user input for Add.
type NewCategory struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Update holds the fields to change. Nil fields are left as they are.
type Update struct {
	Label *string `json:"label,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

// List returns the stored categories. The defaults are written on first use
// and returned whenever the stored list cannot be read. The result always
// contains the "other" sentinel.
func (s *Store) List(ctx context.Context) []domain.Category {
	list, err := s.load(ctx)
	if err != nil {
		log := s.logger(ctx)
		log.Error().Err(err).Str("key", kvstore.CategoriesKey).Msg("Failed to load categories, using defaults")
		return Defaults()
	}
	return ensureOther(list)
}

// Get returns the category with key.
func (s *Store) Get(ctx context.Context, key string) (domain.Category, bool) {
	for _, c := range s.List(ctx) {
		if c.Key == key {
			return c, true
		}
	}
	return domain.Category{}, false
}

// Add validates and stores a new category. Its key is a slug of the label,
// with a numeric suffix when the slug is taken.
func (s *Store) Add(ctx context.Context, in NewCategory) (*domain.Category, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, ErrInvalidLabel
	}
	if !isAvailableIcon(in.Icon) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIcon, in.Icon)
	}
	if !hexColor.MatchString(in.Color) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, in.Color)
	}

	list, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Add: %w", err)
	}
	list = ensureOther(list)

	category := domain.Category{
		Key:   uniqueKey(Slug(label), list),
		Label: label,
		Icon:  in.Icon,
		Color: strings.ToUpper(in.Color),
	}
	list = append(list, category)

	if err := s.save(ctx, list); err != nil {
		return nil, fmt.Errorf("Add: %w", err)
	}
	return &category, nil
}

// Update changes an existing category. It reports false when the key is
// unknown, a field is invalid or the list could not be saved.
func (s *Store) Update(ctx context.Context, key string, upd Update) bool {
	log := s.logger(ctx)

	if upd.Label != nil && strings.TrimSpace(*upd.Label) == "" {
		return false
	}
	if upd.Icon != nil && !isAvailableIcon(*upd.Icon) {
		return false
	}
	if upd.Color != nil && !hexColor.MatchString(*upd.Color) {
		return false
	}

	list, err := s.load(ctx)
	if err != nil {
		log.Error().Err(err).Str("key", kvstore.CategoriesKey).Msg("Failed to load categories for update")
		return false
	}

	index := -1
	for i, c := range list {
		if c.Key == key {
			index = i
			break
		}
	}
	if index == -1 {
		return false
	}

	if upd.Label != nil {
		list[index].Label = strings.TrimSpace(*upd.Label)
	}
	if upd.Icon != nil {
		list[index].Icon = *upd.Icon
	}
	if upd.Color != nil {
		list[index].Color = strings.ToUpper(*upd.Color)
	}

	if err := s.save(ctx, list); err != nil {
		log.Error().Err(err).Str("category", key).Msg("Failed to update category")
		return false
	}
	return true
}

// Delete removes a category. The "other" sentinel cannot be deleted.
// Transactions that use the key keep it and resolve to the sentinel.
func (s *Store) Delete(ctx context.Context, key string) bool {
	log := s.logger(ctx)

	if key == domain.OtherCategoryKey {
		log.Warn().Msg("Refusing to delete the other category")
		return false
	}

	list, err := s.load(ctx)
	if err != nil {
		log.Error().Err(err).Str("key", kvstore.CategoriesKey).Msg("Failed to load categories for delete")
		return false
	}

	kept := make([]domain.Category, 0, len(list))
	for _, c := range list {
		if c.Key != key {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(list) {
		return false
	}

	if err := s.save(ctx, ensureOther(kept)); err != nil {
		log.Error().Err(err).Str("category", key).Msg("Failed to delete category")
		return false
	}
	return true
}

// Reset replaces the stored list with the defaults.
func (s *Store) Reset(ctx context.Context) bool {
	if err := s.save(ctx, Defaults()); err != nil {
		log := s.logger(ctx)
		log.Error().Err(err).Msg("Failed to reset categories")
		return false
	}
	return true
}

// Lookup returns a resolver over the current categories.
func (s *Store) Lookup(ctx context.Context) Lookup {
	return NewLookup(s.List(ctx))
}

// load returns the stored list, seeding the defaults when the key is absent.
func (s *Store) load(ctx context.Context) ([]domain.Category, error) {
	data, found, err := s.kv.Get(ctx, kvstore.CategoriesKey)
	if err != nil {
		return nil, fmt.Errorf("load: read: %w", err)
	}
	if !found || len(strings.TrimSpace(string(data))) == 0 {
		defaults := Defaults()
		if err := s.save(ctx, defaults); err != nil {
			log := s.logger(ctx)
			log.Warn().Err(err).Msg("Failed to seed default categories")
		}
		return defaults, nil
	}

	var list []domain.Category
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("load: decode: %w", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []domain.Category) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("save: encode: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.CategoriesKey, data); err != nil {
		return fmt.Errorf("save: write: %w", err)
	}
	return nil
}

func (s *Store) logger(ctx context.Context) zerolog.Logger {
	return logger.FromContextOr(ctx, s.log)
}

// Slug lower-cases label and replaces each whitespace run with "-".
func Slug(label string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(label), "-")
}

func uniqueKey(base string, list []domain.Category) string {
	taken := make(map[string]bool, len(list))
	for _, c := range list {
		taken[c.Key] = true
	}
	key := base
	for n := 1; taken[key]; n++ {
		key = fmt.Sprintf("%s-%d", base, n)
	}
	return key
}

func ensureOther(list []domain.Category) []domain.Category {
	for _, c := range list {
		if c.Key == domain.OtherCategoryKey {
			return list
		}
	}
	return append(list, defaultOther())
}
