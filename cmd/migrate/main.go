// Package main applies schema migrations to property databases.
// Usage: migrate up [--tenant <id>]
//        migrate down [--tenant <id>]
//        migrate version [--tenant <id>]
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

type tenantEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	DSN  string `json:"dsn"`
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	var targetID string
	for i := 2; i < len(os.Args); i++ {
		if os.Args[i] == "--tenant" && i+1 < len(os.Args) {
			targetID = os.Args[i+1]
			i++
		}
	}

	switch command {
	case "up", "down", "version":
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	entries, err := loadTenants()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	sourceURL := "file://" + getEnv("MIGRATIONS_DIR", "migrations")

	failed := 0
	for _, t := range entries {
		if targetID != "" && t.ID != targetID {
			continue
		}
		fmt.Printf("%s (%s):\n", t.Name, t.ID)
		if err := runCommand(command, sourceURL, t.DSN); err != nil {
			fmt.Printf("  failed: %v\n", err)
			failed++
			continue
		}
		fmt.Println("  done")
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func runCommand(command, sourceURL, dsn string) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			if errors.Is(verr, migrate.ErrNilVersion) {
				fmt.Println("  no migrations applied")
				return nil
			}
			return verr
		}
		fmt.Printf("  version %d (dirty: %v)\n", v, dirty)
		return nil
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("  already up to date")
		return nil
	}
	return err
}

func loadTenants() ([]tenantEntry, error) {
	raw := []byte(os.Getenv("TENANTS"))
	if len(raw) == 0 {
		path := getEnv("TENANTS_FILE", "tenants.json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = data
	}

	var entries []tenantEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse tenant configuration: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no tenants configured")
	}
	return entries, nil
}

func printUsage() {
	fmt.Println(`posada migration tool

Usage:
  migrate <command> [--tenant <id>]

Commands:
  up       Apply all pending migrations
  down     Roll back the last migration
  version  Show current schema version
  help     Show this help

Environment Variables:
  TENANTS_FILE     Path to the tenant JSON file (default: tenants.json)
  TENANTS          Inline tenant JSON (overrides TENANTS_FILE)
  MIGRATIONS_DIR   Directory with .sql migrations (default: migrations)`)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
