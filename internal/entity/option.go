package entity

// OptionCategory is one option axis, e.g. "Size" or "Color". Names are
// unique across the catalog.
type OptionCategory struct {
	ID   int64
	Name string
}

// OptionValue is one point on an option axis, e.g. "Red" for "Color".
// (category, value) is unique, so re-extraction never duplicates a value.
type OptionValue struct {
	ID         int64
	CategoryID int64
	Value      string
}
