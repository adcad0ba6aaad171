// mincombo CLI - Cheapest Combo Finder
//
// Usage:
//
//	mincombo find menu.txt coffee apples bananas
//	mincombo catalog import menu.txt
//	mincombo catalog find coffee apples
//	mincombo serve --port 8080
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"menucost/api"
	"menucost/db/clickhouse"
	"menucost/db/postgres"
	"menucost/decision/menu"
	"menucost/decision/policy"
	"menucost/decision/search"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "mincombo",
		Usage:   "Find the restaurant offering a set of items at the lowest combo price",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "menucost",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:    "log-searches",
				Value:   false,
				Usage:   "Record completed searches in ClickHouse",
				EnvVars: []string{"MINCOMBO_LOG_SEARCHES"},
			},
		},

		Commands: []*cli.Command{
			findCommand(),
			serveCommand(),
			catalogCommand(),
			menuCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// FIND COMMAND
// =============================================================================

func findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "Find the cheapest restaurant for the requested items in a menu file",
		ArgsUsage: "<menu file> <item>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "plain",
				Usage:   "Output format (plain, table, json, markdown)",
			},
			&cli.Float64Flag{
				Name:  "max-price",
				Usage: "Budget limit for policy check",
			},
		},
		Action: runFind,
	}
}

func runFind(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: mincombo find <menu file> <item>...")
	}
	path := c.Args().First()
	items := c.Args().Slice()[1:]

	parser := menu.NewParser()
	restaurants, err := parser.ParseFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "📋 Parsed %d restaurants from %s\n", len(restaurants), path)

	return runSearch(c, restaurants, items, "file")
}

// runSearch runs the cross-restaurant search, applies policies, records
// history and prints the result. Shared by find and catalog find.
func runSearch(c *cli.Context, restaurants []menu.Restaurant, items []string, source string) error {
	result, err := search.Cheapest(restaurants, items)
	feasible := true
	if errors.Is(err, search.ErrNotFound) {
		feasible = false
	} else if err != nil {
		return err
	}

	var policyResult *policy.EvaluationResult
	if feasible {
		if limit := c.Float64("max-price"); limit > 0 {
			engine := policy.NewEngine()
			engine.AddPolicy(policy.Policy{
				ID:        "cli-price-limit",
				Name:      "Price Limit",
				Type:      policy.PolicyTypePriceLimit,
				Severity:  policy.SeverityError,
				Threshold: decimal.NewFromFloat(limit),
				Enabled:   true,
			})
			policyResult = engine.Evaluate(result)
		}
	}

	if c.Bool("log-searches") {
		logSearch(c, items, result, feasible, source)
	}

	if !feasible {
		// No qualifying restaurant still exits 0.
		fmt.Println("null")
		return nil
	}

	switch c.String("format") {
	case "json":
		err = outputJSON(result, policyResult)
	case "table":
		err = outputTable(result, policyResult)
	case "markdown":
		err = outputMarkdown(result, policyResult)
	default:
		fmt.Printf("%s, %s\n", result.Restaurant, result.Price)
	}
	if err != nil {
		return err
	}

	if policyResult != nil && policyResult.Decision == policy.DecisionDeny {
		for _, v := range policyResult.Violations {
			fmt.Fprintf(os.Stderr, "❌ %s\n", v.Message)
		}
		os.Exit(2)
	}
	return nil
}

// logSearch records the search outcome in ClickHouse. Failures are reported
// but never change the search result or exit code.
func logSearch(c *cli.Context, items []string, result *search.Result, feasible bool, source string) {
	store, err := clickhouse.NewStore(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  search logging disabled: %v\n", err)
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := &clickhouse.SearchRecord{
		ID:             uuid.New(),
		RequestedItems: items,
		Feasible:       feasible,
		Source:         source,
		SearchedAt:     time.Now().UTC(),
	}
	if feasible {
		rec.Restaurant = result.Restaurant
		rec.Price = result.Price
	}

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  failed to prepare search history: %v\n", err)
		return
	}
	if err := store.InsertSearch(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  failed to record search: %v\n", err)
	}
}

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

type JSONOutput struct {
	Restaurant            string             `json:"restaurant"`
	Price                 string             `json:"price"`
	RestaurantsEvaluated  int                `json:"restaurants_evaluated"`
	RestaurantsInfeasible int                `json:"restaurants_infeasible"`
	PolicyResult          string             `json:"policy_result,omitempty"`
	Violations            []policy.Violation `json:"violations,omitempty"`
}

func outputJSON(result *search.Result, policyResult *policy.EvaluationResult) error {
	output := JSONOutput{
		Restaurant:            result.Restaurant,
		Price:                 result.Price.String(),
		RestaurantsEvaluated:  result.RestaurantsEvaluated,
		RestaurantsInfeasible: result.RestaurantsInfeasible,
	}
	if policyResult != nil {
		output.PolicyResult = string(policyResult.Decision)
		output.Violations = policyResult.Violations
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputTable(result *search.Result, policyResult *policy.EvaluationResult) error {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    🍽️  CHEAPEST COMBO                         ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Restaurant:            %-37s ║\n", truncate(result.Restaurant, 37))
	fmt.Printf("║  Total Price:           $%-36s ║\n", result.Price.StringFixed(2))
	fmt.Printf("║  Restaurants Evaluated: %-37d ║\n", result.RestaurantsEvaluated)
	fmt.Printf("║  Infeasible:            %-37d ║\n", result.RestaurantsInfeasible)

	if policyResult != nil {
		fmt.Println("╠══════════════════════════════════════════════════════════════╣")
		var policyIcon string
		switch policyResult.Decision {
		case policy.DecisionPass:
			policyIcon = "✅ PASS"
		case policy.DecisionWarn:
			policyIcon = "⚠️  WARN"
		case policy.DecisionDeny:
			policyIcon = "❌ DENY"
		}
		fmt.Printf("║  Policy Result:         %-38s ║\n", policyIcon)
		for _, v := range policyResult.Violations {
			fmt.Printf("║  ❌ %-57s ║\n", truncate(v.Message, 57))
		}
	}

	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	return nil
}

func outputMarkdown(result *search.Result, policyResult *policy.EvaluationResult) error {
	fmt.Println("## 🍽️ Cheapest Combo Report")
	fmt.Println()
	fmt.Println("| Metric | Value |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| **Restaurant** | %s |\n", result.Restaurant)
	fmt.Printf("| **Total Price** | $%s |\n", result.Price.StringFixed(2))
	fmt.Printf("| **Restaurants Evaluated** | %d |\n", result.RestaurantsEvaluated)
	fmt.Printf("| **Infeasible** | %d |\n", result.RestaurantsInfeasible)

	if policyResult != nil {
		fmt.Printf("| **Policy Result** | %s |\n", policyResult.Decision)
		if len(policyResult.Violations) > 0 {
			fmt.Println()
			fmt.Println("### ❌ Policy Violations")
			fmt.Println()
			for _, v := range policyResult.Violations {
				fmt.Printf("- **%s**: %s\n", v.PolicyName, v.Message)
			}
		}
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// =============================================================================
// CATALOG COMMAND (POSTGRES MENU SOURCE)
// =============================================================================

func catalogCommand() *cli.Command {
	dsnFlag := &cli.StringFlag{
		Name:    "postgres-dsn",
		Usage:   "Postgres DSN for the menu catalog",
		EnvVars: []string{"MINCOMBO_POSTGRES_DSN"},
		Value:   "postgres://localhost/menucost?sslmode=disable",
	}

	return &cli.Command{
		Name:  "catalog",
		Usage: "Manage and search the Postgres menu catalog",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import a menu file into the catalog",
				ArgsUsage: "<menu file>",
				Flags:     []cli.Flag{dsnFlag},
				Action:    runCatalogImport,
			},
			{
				Name:      "find",
				Usage:     "Find the cheapest restaurant using catalog menus",
				ArgsUsage: "<item>...",
				Flags: []cli.Flag{
					dsnFlag,
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "plain",
						Usage:   "Output format (plain, table, json, markdown)",
					},
					&cli.Float64Flag{
						Name:  "max-price",
						Usage: "Budget limit for policy check",
					},
				},
				Action: runCatalogFind,
			},
		},
	}
}

func openCatalog(c *cli.Context) (*postgres.Catalog, error) {
	catalog, err := postgres.Open(c.String("postgres-dsn"))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := catalog.Ping(ctx); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("failed to reach menu catalog: %w", err)
	}
	return catalog, nil
}

func runCatalogImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: mincombo catalog import <menu file>")
	}

	parser := menu.NewParser()
	restaurants, err := parser.ParseFile(c.Args().First())
	if err != nil {
		return err
	}

	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	ctx := context.Background()
	if err := catalog.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := catalog.SaveRestaurants(ctx, restaurants); err != nil {
		return err
	}

	lines := 0
	for _, r := range restaurants {
		lines += len(r.Menu)
	}
	fmt.Fprintf(os.Stderr, "💾 Imported %d restaurants (%d menu lines)\n", len(restaurants), lines)
	return nil
}

func runCatalogFind(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mincombo catalog find <item>...")
	}
	items := c.Args().Slice()

	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	restaurants, err := catalog.LoadRestaurants(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "📋 Loaded %d restaurants from catalog\n", len(restaurants))

	return runSearch(c, restaurants, items, "postgres")
}

// =============================================================================
// MENU COMMAND
// =============================================================================

func menuCommand() *cli.Command {
	return &cli.Command{
		Name:  "menu",
		Usage: "Inspect menu files",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Parse a menu file and report its contents",
				ArgsUsage: "<menu file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: mincombo menu validate <menu file>")
					}
					parser := menu.NewParser()
					restaurants, err := parser.ParseFile(c.Args().First())
					if err != nil {
						return err
					}
					for _, r := range restaurants {
						items := r.Menu.ItemSet()
						names := make([]string, 0, len(items))
						for item := range items {
							names = append(names, item)
						}
						fmt.Printf("%s: %d lines, %d distinct items (%s)\n",
							r.Name, len(r.Menu), len(items), strings.Join(names, ", "))
					}
					return nil
				},
			},
		},
	}
}

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the menucost API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "API server port",
				EnvVars: []string{"MINCOMBO_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"MINCOMBO_CORS_ORIGINS"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	var store *clickhouse.Store
	if c.Bool("log-searches") {
		var err error
		store, err = clickhouse.NewStore(&clickhouse.Config{
			Host:     c.String("clickhouse-host"),
			Port:     c.Int("clickhouse-port"),
			Database: c.String("clickhouse-database"),
			Username: c.String("clickhouse-user"),
			Password: c.String("clickhouse-password"),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureSchema(ctx); err != nil {
			cancel()
			return fmt.Errorf("failed to prepare search history: %w", err)
		}
		cancel()
	}

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	config := api.DefaultConfig()
	config.Port = c.Int("port")
	config.CORSOrigins = corsOrigins

	server := api.NewServer(store, config)
	return server.StartWithGracefulShutdown()
}
