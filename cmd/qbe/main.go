package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-qbe/pkg/registry"
)

var (
	flagRegistry string
	flagOpenAPI  string
	flagDB       string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "qbe",
	Short: "Query-by-Example admin tooling",
	Long: `qbe serves a Query-by-Example admin screen over a relational database
and builds ad-hoc SQL queries from the command line.

Models come from a YAML registry file, an OpenAPI document with x-qbe-*
extensions, or straight from the database schema when neither is given.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRegistry, "registry", "", "path to a YAML model registry")
	rootCmd.PersistentFlags().StringVar(&flagOpenAPI, "openapi", "", "path to an OpenAPI document describing the models")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "sqlite database path or DSN")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func buildLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openDB() (*sql.DB, error) {
	if flagDB == "" {
		return nil, nil
	}
	db, err := sql.Open("sqlite", flagDB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// loadModels resolves the model registry from, in order of preference, the
// YAML file, the OpenAPI document, or database introspection.
func loadModels(ctx context.Context, db *sql.DB) (*registry.Registry, error) {
	switch {
	case flagRegistry != "":
		reg, err := registry.LoadFile(flagRegistry)
		if err != nil {
			return nil, fmt.Errorf("load registry %s: %w", flagRegistry, err)
		}
		return reg, nil
	case flagOpenAPI != "":
		data, err := os.ReadFile(flagOpenAPI)
		if err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
		reg, err := registry.LoadOpenAPI(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("load openapi document %s: %w", flagOpenAPI, err)
		}
		return reg, nil
	case db != nil:
		reg, err := registry.Introspect(ctx, db, "Main")
		if err != nil {
			return nil, fmt.Errorf("introspect database: %w", err)
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("no model source: pass --registry, --openapi, or --db")
	}
}
