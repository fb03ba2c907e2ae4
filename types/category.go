package types

// Category is an entry in the registry of known category names. Expenses
// reference categories by name only.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
