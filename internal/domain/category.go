package domain

// OtherCategoryKey is the sentinel category that always exists and absorbs
// lookups for unknown or deleted keys.
const OtherCategoryKey = "other"

// Category is a user-configurable spending category. Transactions reference it
// by Key only; deleting a category never rewrites existing transactions.
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// UserProfile is the locally stored owner profile.
type UserProfile struct {
	Name     string `json:"name"`
	AvatarID string `json:"avatarId"`
}
