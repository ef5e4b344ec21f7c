package model

import "strings"

// Category is the closed set of category labels that drive statement placement.
// Any label outside the set parses as CategoryOther.
type Category string

const (
	CategoryDirectCosts         Category = "direct_costs"
	CategoryInfrastructure      Category = "infrastructure"
	CategoryInfrastructureCosts Category = "infrastructure_costs"
	CategoryCash                Category = "cash"
	CategoryAccountsReceivable  Category = "accounts_receivable"
	CategoryEquipment           Category = "equipment"
	CategoryInventory           Category = "inventory"
	CategoryAccountsPayable     Category = "accounts_payable"
	CategoryShortTermDebt       Category = "short_term_debt"
	CategoryLongTermDebt        Category = "long_term_debt"
	CategoryOther               Category = "other"
)

var knownCategories = map[Category]bool{
	CategoryDirectCosts:         true,
	CategoryInfrastructure:      true,
	CategoryInfrastructureCosts: true,
	CategoryCash:                true,
	CategoryAccountsReceivable:  true,
	CategoryEquipment:           true,
	CategoryInventory:           true,
	CategoryAccountsPayable:     true,
	CategoryShortTermDebt:       true,
	CategoryLongTermDebt:        true,
}

// ParseCategory classifies a free-form label. Matching ignores case and
// surrounding whitespace, and treats runs of spaces, hyphens and underscores
// as a single separator: "Infrastructure  Costs" is CategoryInfrastructureCosts.
func ParseCategory(label string) Category {
	c := Category(normalizeLabel(label))
	if knownCategories[c] {
		return c
	}
	return CategoryOther
}

func normalizeLabel(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '_' || r == '-'
	})
	return strings.Join(fields, "_")
}

// IsCOGS reports whether an expense in this category is a cost of goods sold.
func (c Category) IsCOGS() bool {
	switch c {
	case CategoryDirectCosts, CategoryInfrastructure, CategoryInfrastructureCosts:
		return true
	}
	return false
}

// IsFixedAsset reports whether an asset in this category is carried as a fixed asset.
func (c Category) IsFixedAsset() bool {
	return c == CategoryEquipment || c == CategoryInventory
}

// IsDebt reports whether a liability in this category is financing debt.
func (c Category) IsDebt() bool {
	return c == CategoryShortTermDebt || c == CategoryLongTermDebt
}
