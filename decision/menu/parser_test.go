package menu

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseGroupsContiguousLines(t *testing.T) {
	input := `diner, 5.00, coffee
diner, 3.00, bagel
teahouse, 2.50, tea
teahouse, 4.00, tea, scone
`
	parser := NewParser()
	restaurants, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(restaurants) != 2 {
		t.Fatalf("expected 2 restaurants, got %d", len(restaurants))
	}
	if restaurants[0].Name != "diner" || restaurants[1].Name != "teahouse" {
		t.Errorf("restaurants out of order: %s, %s", restaurants[0].Name, restaurants[1].Name)
	}
	if len(restaurants[0].Menu) != 2 || len(restaurants[1].Menu) != 2 {
		t.Errorf("unexpected menu lengths: %d, %d", len(restaurants[0].Menu), len(restaurants[1].Menu))
	}
	if !restaurants[0].Menu[0].Price.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected price 5.00, got %s", restaurants[0].Menu[0].Price)
	}
	if got := restaurants[1].Menu[1].Items; len(got) != 2 || got[0] != "tea" || got[1] != "scone" {
		t.Errorf("unexpected items: %v", got)
	}
}

func TestParseTrimsWhitespaceAndSkipsBlankLines(t *testing.T) {
	input := "  diner ,  5.00 ,  coffee  \n\n  diner , 3.00 , bagel \n"
	parser := NewParser()
	restaurants, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(restaurants) != 1 {
		t.Fatalf("expected 1 restaurant, got %d", len(restaurants))
	}
	if restaurants[0].Name != "diner" {
		t.Errorf("expected trimmed name diner, got %q", restaurants[0].Name)
	}
	if restaurants[0].Menu[0].Items[0] != "coffee" {
		t.Errorf("expected trimmed item coffee, got %q", restaurants[0].Menu[0].Items[0])
	}
}

func TestParseRestaurantReappearingStartsNewEntry(t *testing.T) {
	// Contiguity is trusted, not enforced: a name seen again later becomes
	// a separate entry.
	input := `diner, 5.00, coffee
teahouse, 2.50, tea
diner, 3.00, bagel
`
	parser := NewParser()
	restaurants, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(restaurants) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(restaurants))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "diner, 5.00\n"},
		{"bad price", "diner, cheap, coffee\n"},
		{"negative price", "diner, -1.00, coffee\n"},
	}
	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("expected parse error for %q", tt.input)
			}
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	parser := NewParser()
	if _, err := parser.ParseFile("does-not-exist.txt"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestMenuItemSetAndContains(t *testing.T) {
	m := Menu{
		{Price: decimal.New(5, 0), Items: []string{"coffee", "coffee"}},
		{Price: decimal.New(3, 0), Items: []string{"bagel"}},
	}
	set := m.ItemSet()
	if len(set) != 2 {
		t.Errorf("expected 2 distinct items, got %d", len(set))
	}
	if !m.Contains("bagel") || m.Contains("tea") {
		t.Errorf("Contains gave wrong answers")
	}
}
