package categories

import "github.com/dvloznov/upi-tracker/internal/domain"

// Fallback presentation for keys that resolve to nothing.
const (
	FallbackLabel = "Other"
	FallbackIcon  = "pricetag"
	FallbackColor = "#6B7280"
)

var defaultCategories = []domain.Category{
	{Key: "food", Label: "Food", Icon: "restaurant", Color: "#F59E0B"},
	{Key: "utility", Label: "Utility", Icon: "flash", Color: "#3B82F6"},
	{Key: "college", Label: "College", Icon: "school", Color: "#8B5CF6"},
	{Key: "rent", Label: "Rent", Icon: "home", Color: "#EC4899"},
	{Key: domain.OtherCategoryKey, Label: FallbackLabel, Icon: FallbackIcon, Color: FallbackColor},
}

var availableIcons = []string{
	"restaurant", "flash", "school", "home", "pricetag",
	"cart", "car", "medkit", "airplane", "gift",
	"fitness", "film", "musical-notes", "game-controller", "shirt",
	"cut", "cafe", "beer", "pizza", "wallet",
	"card", "cash", "business", "briefcase", "construct",
	"hammer", "bulb", "water", "wifi", "phone-portrait",
	"desktop", "laptop", "tv", "headset", "book",
	"library", "newspaper", "document-text", "people", "person",
	"heart", "paw", "leaf", "flower", "globe",
	"train", "bus", "boat", "bicycle",
}

var availableColors = []string{
	"#F59E0B", // amber
	"#3B82F6", // blue
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#6B7280", // gray
	"#10B981", // emerald
	"#EF4444", // red
	"#F97316", // orange
	"#14B8A6", // teal
	"#6366F1", // indigo
	"#84CC16", // lime
	"#06B6D4", // cyan
	"#A855F7", // violet
	"#F43F5E", // rose
	"#78716C", // stone
}

// Defaults returns a copy of the built-in category list.
func Defaults() []domain.Category {
	out := make([]domain.Category, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// AvailableIcons returns the icon names a category may use.
func AvailableIcons() []string {
	return append([]string(nil), availableIcons...)
}

// AvailableColors returns the suggested palette.
func AvailableColors() []string {
	return append([]string(nil), availableColors...)
}

func defaultOther() domain.Category {
	return defaultCategories[len(defaultCategories)-1]
}

func isAvailableIcon(icon string) bool {
	for _, i := range availableIcons {
		if i == icon {
			return true
		}
	}
	return false
}
