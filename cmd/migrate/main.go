package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"helpbridge/config"
	"helpbridge/internal/repository"
	"helpbridge/internal/services"
	"helpbridge/pkg/database"
)

const usage = `
HelpBridge - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Create or update the schema and constraints
  status      Show database connection status and table counts
  seed        Seed the admin account
  seed-dev    Seed admin, demo helpers, receivers and a pending request,
              then print an access token per user

Flags:
  -admin-email string  Admin email for seeding (default "admin@helpbridge.local")
  -admin-name string   Admin display name for seeding (default "Platform Admin")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed
  go run cmd/migrate/main.go seed-dev
`

func main() {
	adminEmail := flag.String("admin-email", "admin@helpbridge.local", "Admin email for seeding")
	adminName := flag.String("admin-name", "Platform Admin", "Admin display name for seeding")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed":
		runSeed(cfg, &database.SeedConfig{AdminEmail: *adminEmail, AdminName: *adminName})
	case "seed-dev":
		runSeed(cfg, &database.SeedConfig{AdminEmail: *adminEmail, AdminName: *adminName, CreateDemoUsers: true})
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")
	if err := repository.InitSchema(database.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func showStatus() {
	if err := database.HealthCheck(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	fmt.Println("Database connection: OK")
	fmt.Println()
	fmt.Printf("%-20s %-8s %s\n", "TABLE", "EXISTS", "ROWS")

	for _, table := range repository.Tables {
		exists, err := database.TableExists(table)
		if err != nil {
			log.Fatalf("Failed to inspect %s: %v", table, err)
		}
		if !exists {
			fmt.Printf("%-20s %-8s %s\n", table, "no", "-")
			continue
		}
		count, err := database.TableCount(table)
		if err != nil {
			fmt.Printf("%-20s %-8s error: %v\n", table, "yes", err)
			continue
		}
		fmt.Printf("%-20s %-8s %d\n", table, "yes", count)
	}
}

func runSeed(cfg *config.Config, seedCfg *database.SeedConfig) {
	result, err := database.Seed(context.Background(), seedCfg)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if !seedCfg.CreateDemoUsers {
		fmt.Printf("Admin: %s (%s)\n", result.AdminUser.Email, result.AdminUser.ID)
		return
	}

	auth := services.NewAuthService(cfg)
	fmt.Println()
	fmt.Println("Development access tokens:")
	for _, u := range result.Users() {
		token, err := auth.IssueAccessToken(services.Identity{UserID: u.ID, Role: u.Role})
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", u.Email, err)
		}
		fmt.Printf("\n%s <%s> [%s]\n  id:    %s\n  token: %s\n", u.Name, u.Email, u.Role, u.ID, token)
	}
	for _, r := range result.Requests {
		fmt.Printf("\nPending request %s (%s -> %s)\n", r.ID, r.ReceiverID, r.HelperID)
	}
}
