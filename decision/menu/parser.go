package menu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Parser reads delimited menu files into per-restaurant menus.
//
// Each input line describes one combo offering:
//
//	restaurant, price, item1, item2, ...
//
// Fields are comma-separated and trimmed of surrounding whitespace. All
// lines for one restaurant are expected to be contiguous; the parser does
// not re-sort. A restaurant name reappearing after other restaurants
// starts a fresh entry.
type Parser struct{}

// NewParser creates a new menu file parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a menu file from disk
func (p *Parser) ParseFile(path string) ([]Restaurant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open menu file: %w", err)
	}
	defer f.Close()

	restaurants, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return restaurants, nil
}

// Parse reads menu records from r and groups contiguous lines per restaurant.
// Blank lines are skipped. Restaurants are returned in input order.
func (p *Parser) Parse(r io.Reader) ([]Restaurant, error) {
	var (
		restaurants []Restaurant
		current     string
		lines       Menu
		lineNo      int
	)

	flush := func() {
		if len(lines) > 0 {
			restaurants = append(restaurants, Restaurant{Name: current, Menu: lines})
			lines = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		fields := strings.Split(raw, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected restaurant, price and at least one item, got %d fields", lineNo, len(fields))
		}

		price, err := decimal.NewFromString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q: %w", lineNo, fields[1], err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("line %d: negative price %s", lineNo, price)
		}

		if fields[0] != current {
			flush()
			current = fields[0]
		}
		lines = append(lines, Line{Price: price, Items: fields[2:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read menu input: %w", err)
	}

	flush()
	return restaurants, nil
}
