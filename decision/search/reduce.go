// Package search provides the minimum-cost combo search engine.
// Given a restaurant menu and a set of requested items it finds the
// cheapest selection of combo lines whose union covers every item.
package search

import (
	"menucost/decision/menu"
)

// Reduce filters a menu down to the lines relevant to the requested items.
// Lines sharing no item with the request can never help a covering
// selection and only inflate the exponential search space, so they are
// dropped. If the union of the kept lines still misses a requested item the
// restaurant is infeasible and Reduce returns ErrInfeasible.
//
// Reduce is pure and idempotent: reducing a reduced menu returns it
// unchanged. Line order is preserved.
func Reduce(m menu.Menu, items []string) (menu.Menu, error) {
	wanted := make(map[string]struct{}, len(items))
	for _, item := range items {
		wanted[item] = struct{}{}
	}

	reduced := make(menu.Menu, 0, len(m))
	covered := make(map[string]struct{})
	for _, line := range m {
		keep := false
		for _, item := range line.Items {
			if _, ok := wanted[item]; ok {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}
		reduced = append(reduced, line)
		for _, item := range line.Items {
			if _, ok := wanted[item]; ok {
				covered[item] = struct{}{}
			}
		}
	}

	if len(covered) != len(wanted) {
		return nil, ErrInfeasible
	}
	return reduced, nil
}
