package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pirnawaz/agroledger/internal/infrastructure/config"
	"github.com/pirnawaz/agroledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	tenant  string
	actor   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agroledger-cli",
		Short: "AgroLedger CLI tool",
		Long:  `A command line interface for operating an AgroLedger deployment.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the AgroLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "", "Tenant ID sent as X-Tenant-ID")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor ID sent as X-Actor-ID")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(cycleCmd())
	rootCmd.AddCommand(reclassifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				fmt.Printf("Migration failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migrations applied")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()
			if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				fmt.Printf("Rollback failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migration rolled back")
		},
	})

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that tenant-wide debits equal credits",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	})

	return cmd
}

func cycleCmd() *cobra.Command {
	var toDate string
	var requireClosed bool

	closeCmd := &cobra.Command{
		Use:   "close <crop-cycle-id>",
		Short: "Consolidate a crop cycle into retained earnings",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			closeCycle(args[0], toDate, requireClosed)
		},
	}
	closeCmd.Flags().StringVar(&toDate, "to-date", "", "Close window end (YYYY-MM-DD, defaults to cycle end)")
	closeCmd.Flags().BoolVar(&requireClosed, "require-projects-closed", false, "Reject the close while ACTIVE projects remain")

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Crop cycle operations",
	}
	cmd.AddCommand(closeCmd)

	return cmd
}

func reclassifyCmd() *cobra.Command {
	var file string

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Apply reclassification fixes from a JSON file",
		Long:  `Reads a JSON array of reclassification requests and applies each through the API. Failures are reported per candidate; already-applied fixes count as skipped.`,
		Run: func(cmd *cobra.Command, args []string) {
			batchReclassify(file)
		},
	}
	batchCmd.Flags().StringVar(&file, "file", "", "Path to the JSON candidates file")
	batchCmd.MarkFlagRequired("file")

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Allocation scope fixes",
	}
	cmd.AddCommand(batchCmd)

	return cmd
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	return req, nil
}

func checkConsistency() {
	req, err := newRequest(http.MethodGet, "/api/v1/ledger/consistency", nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\n", resp.StatusCode)
		fmt.Printf("Debits:  %v\nCredits: %v\nOff by:  %v\n", result["total_debits"], result["total_credits"], result["difference"])
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	fmt.Printf("Debits:  %v\nCredits: %v\n", result["total_debits"], result["total_credits"])
}

func closeCycle(cycleID, toDate string, requireClosed bool) {
	payload := map[string]any{"require_projects_closed": requireClosed}
	if toDate != "" {
		t, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			fmt.Printf("Invalid --to-date: %v\n", err)
			os.Exit(1)
		}
		payload["to_date"] = t
	}

	body, _ := json.Marshal(payload)
	req, err := newRequest(http.MethodPost, "/api/v1/crop-cycles/"+cycleID+"/close", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		fmt.Printf("Close FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(respBody))
		os.Exit(1)
	}

	var run map[string]any
	if err := json.Unmarshal(respBody, &run); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Crop cycle closed\n")
	fmt.Printf("Income:  %v\nExpense: %v\nNet:     %v\n", run["total_income"], run["total_expense"], run["net_profit"])
}

func batchReclassify(file string) {
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("Failed to read candidates file: %v\n", err)
		os.Exit(1)
	}

	var candidates []json.RawMessage
	if err := json.Unmarshal(data, &candidates); err != nil {
		fmt.Printf("Failed to parse candidates file: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	applied, failed := 0, 0

	for i, candidate := range candidates {
		req, err := newRequest(http.MethodPost, "/api/v1/reclassifications", bytes.NewReader(candidate))
		if err != nil {
			fmt.Printf("WARN candidate %d: %v\n", i, err)
			failed++
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			fmt.Printf("WARN candidate %d: %v\n", i, err)
			failed++
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			fmt.Printf("WARN candidate %d: status %d: %s\n", i, resp.StatusCode, string(respBody))
			failed++
			continue
		}

		applied++
	}

	fmt.Printf("Reclassification batch finished: %d applied, %d failed, %d total\n", applied, failed, len(candidates))
	if failed > 0 {
		os.Exit(1)
	}
}
