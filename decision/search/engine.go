package search

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"menucost/decision/menu"
)

// isValid reports whether the selection covers every requested item. Items
// appearing in selected lines but not in the request are ignored. A
// menu/mask length disagreement is a caller-contract violation and is
// reported as *LengthMismatchError, never as false.
func isValid(m menu.Menu, mask SelectionMask, items []string) (bool, error) {
	if len(m) != len(mask) {
		return false, &LengthMismatchError{MenuLen: len(m), MaskLen: len(mask)}
	}

	covered := make(map[string]bool, len(items))
	for _, item := range items {
		covered[item] = false
	}
	for i, selected := range mask {
		if selected == 0 {
			continue
		}
		for _, item := range m[i].Items {
			if _, wanted := covered[item]; wanted {
				covered[item] = true
			}
		}
	}
	for _, item := range items {
		if !covered[item] {
			return false, nil
		}
	}
	return true, nil
}

// comboPrice sums the prices of the selected menu lines. Shares the
// length-mismatch contract with isValid.
func comboPrice(m menu.Menu, mask SelectionMask) (decimal.Decimal, error) {
	if len(m) != len(mask) {
		return decimal.Zero, &LengthMismatchError{MenuLen: len(m), MaskLen: len(mask)}
	}
	price := decimal.Zero
	for i, selected := range mask {
		if selected != 0 {
			price = price.Add(m[i].Price)
		}
	}
	return price, nil
}

// MinimumCost finds the cheapest selection of menu lines whose union covers
// every requested item. It returns ErrNotFound for an empty menu or when no
// selection covers the request.
//
// The search is exhaustive over all 2^len(m) − 1 nonempty selections;
// callers are expected to Reduce the menu first to keep it small. A
// one-line menu skips mask enumeration but is still checked for coverage,
// so MinimumCost never reports the price of a line that does not contain
// every requested item.
func MinimumCost(m menu.Menu, items []string) (decimal.Decimal, error) {
	switch len(m) {
	case 0:
		return decimal.Zero, ErrNotFound
	case 1:
		ok, err := isValid(m, SelectionMask{1}, items)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			return decimal.Zero, ErrNotFound
		}
		return m[0].Price, nil
	}

	var (
		best  decimal.Decimal
		found bool
	)
	for _, mask := range Masks(len(m)) {
		ok, err := isValid(m, mask, items)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			continue
		}
		price, err := comboPrice(m, mask)
		if err != nil {
			return decimal.Zero, err
		}
		if !found || price.LessThan(best) {
			best = price
			found = true
		}
	}
	if !found {
		return decimal.Zero, ErrNotFound
	}
	return best, nil
}

// Result is the outcome of a cross-restaurant search.
type Result struct {
	Restaurant string          `json:"restaurant"`
	Price      decimal.Decimal `json:"price"`

	// Statistics
	RestaurantsEvaluated  int `json:"restaurants_evaluated"`
	RestaurantsInfeasible int `json:"restaurants_infeasible"`
}

// Cheapest evaluates every restaurant in input order and returns the one
// satisfying the request at the lowest total price. Strict less-than keeps
// the first restaurant on ties. Returns ErrNotFound when no restaurant can
// cover the request.
func Cheapest(restaurants []menu.Restaurant, items []string) (*Result, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items requested")
	}

	result := &Result{}
	var (
		best  decimal.Decimal
		found bool
	)
	for _, r := range restaurants {
		result.RestaurantsEvaluated++

		reduced, err := Reduce(r.Menu, items)
		if errors.Is(err, ErrInfeasible) {
			result.RestaurantsInfeasible++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reducing menu for %s: %w", r.Name, err)
		}

		price, err := MinimumCost(reduced, items)
		if errors.Is(err, ErrNotFound) {
			result.RestaurantsInfeasible++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("searching menu for %s: %w", r.Name, err)
		}

		if !found || price.LessThan(best) {
			best = price
			found = true
			result.Restaurant = r.Name
		}
	}

	if !found {
		return nil, ErrNotFound
	}
	result.Price = best
	return result, nil
}
