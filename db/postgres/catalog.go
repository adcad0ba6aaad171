// Package postgres provides the Postgres menu catalog
// Menus can be imported once and searched repeatedly without re-reading files
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"menucost/decision/menu"
)

// Catalog stores restaurant menus in Postgres
type Catalog struct {
	db *sql.DB
}

// Open connects to Postgres using a lib/pq DSN
func Open(dsn string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Ping checks database connectivity
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// EnsureSchema creates the catalog table if it does not exist. Line order
// within a menu is preserved through the position column.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS menu_lines (
			restaurant TEXT NOT NULL,
			position   INTEGER NOT NULL,
			price      NUMERIC(18, 4) NOT NULL,
			items      TEXT[] NOT NULL,
			PRIMARY KEY (restaurant, position)
		)
	`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create menu_lines table: %w", err)
	}
	return nil
}

// SaveRestaurants replaces the stored menus of the given restaurants
func (c *Catalog) SaveRestaurants(ctx context.Context, restaurants []menu.Restaurant) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range restaurants {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM menu_lines WHERE restaurant = $1`, r.Name); err != nil {
			return fmt.Errorf("failed to clear menu for %s: %w", r.Name, err)
		}
		for i, line := range r.Menu {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO menu_lines (restaurant, position, price, items) VALUES ($1, $2, $3, $4)`,
				r.Name, i, line.Price.String(), pq.Array(line.Items),
			); err != nil {
				return fmt.Errorf("failed to insert menu line for %s: %w", r.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menu import: %w", err)
	}
	return nil
}

// LoadRestaurants returns every stored restaurant with its menu lines in
// their original order. Restaurants come back alphabetically; the search
// result does not depend on restaurant order except for tie-breaking.
func (c *Catalog) LoadRestaurants(ctx context.Context) ([]menu.Restaurant, error) {
	query := `
		SELECT restaurant, price, items
		FROM menu_lines
		ORDER BY restaurant, position
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu catalog: %w", err)
	}
	defer rows.Close()

	var (
		restaurants []menu.Restaurant
		current     string
		lines       menu.Menu
	)
	flush := func() {
		if len(lines) > 0 {
			restaurants = append(restaurants, menu.Restaurant{Name: current, Menu: lines})
			lines = nil
		}
	}

	for rows.Next() {
		var (
			name     string
			priceStr string
			items    pq.StringArray
		)
		if err := rows.Scan(&name, &priceStr, &items); err != nil {
			return nil, fmt.Errorf("failed to scan menu line: %w", err)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored price %q for %s: %w", priceStr, name, err)
		}

		if name != current {
			flush()
			current = name
		}
		lines = append(lines, menu.Line{Price: price, Items: []string(items)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu catalog: %w", err)
	}

	flush()
	return restaurants, nil
}
