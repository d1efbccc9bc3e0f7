package categories

import "github.com/dvloznov/upi-tracker/internal/domain"

// Lookup resolves category keys, including keys of deleted categories.
type Lookup map[string]domain.Category

// NewLookup indexes list by key.
func NewLookup(list []domain.Category) Lookup {
	l := make(Lookup, len(list)+1)
	for _, c := range list {
		l[c.Key] = c
	}
	if _, ok := l[domain.OtherCategoryKey]; !ok {
		l[domain.OtherCategoryKey] = defaultOther()
	}
	return l
}

// Resolve returns the category for key, or the "other" sentinel when key is
// unknown.
func (l Lookup) Resolve(key string) domain.Category {
	if c, ok := l[key]; ok {
		return c
	}
	if other, ok := l[domain.OtherCategoryKey]; ok {
		return other
	}
	return defaultOther()
}

func (l Lookup) LabelFor(key string) string {
	if label := l.Resolve(key).Label; label != "" {
		return label
	}
	return FallbackLabel
}

func (l Lookup) IconFor(key string) string {
	if icon := l.Resolve(key).Icon; icon != "" {
		return icon
	}
	return FallbackIcon
}

func (l Lookup) ColorFor(key string) string {
	if color := l.Resolve(key).Color; color != "" {
		return color
	}
	return FallbackColor
}
