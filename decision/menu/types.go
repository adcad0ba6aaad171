// Package menu provides the menu data model and delimited-file ingestion
// This is the entry point for the Decision Plane - all menu inputs flow through here
package menu

import (
	"github.com/shopspring/decimal"
)

// Line represents a single priced combo offering on a restaurant menu.
// An item name may repeat within a line; only presence matters downstream.
type Line struct {
	Price decimal.Decimal `json:"price"`
	Items []string        `json:"items"`
}

// Menu is the ordered list of combo lines belonging to one restaurant.
// Order carries no pricing meaning but is preserved for reproducibility.
type Menu []Line

// Restaurant pairs a restaurant identifier with its menu.
type Restaurant struct {
	Name string `json:"name"`
	Menu Menu   `json:"lines"`
}

// ItemSet returns the set of distinct item names appearing on the menu.
func (m Menu) ItemSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range m {
		for _, item := range line.Items {
			set[item] = struct{}{}
		}
	}
	return set
}

// Contains reports whether any line on the menu offers the given item.
func (m Menu) Contains(item string) bool {
	for _, line := range m {
		for _, it := range line.Items {
			if it == item {
				return true
			}
		}
	}
	return false
}
