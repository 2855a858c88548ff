// Package cli wires the stores into a cobra command tree. Every
// command builds the same dependency chain: config, keystore, API
// client, stores, then tears it down when the command returns.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"saldo/internal/amqp"
	"saldo/internal/api"
	"saldo/internal/config"
	"saldo/internal/keystore"
	applog "saldo/internal/log"
	"saldo/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "saldo",
	Short: "Personal finance client for the saldo backend",
	Long: `saldo is a command line client for the saldo personal finance API.
It keeps your session in a local SQLite database, talks to the backend
over HTTP and mirrors the server state for transactions and dashboard
statistics.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

// app holds the wired dependency chain shared by all commands.
type app struct {
	cfg          *config.Config
	keys         *keystore.Store
	client       *api.Client
	session      *store.Session
	transactions *store.Transactions
	dashboard    *store.Dashboard
	events       *amqp.Client
}

var a app

func setup(cmd *cobra.Command, args []string) error {
	applog.Setup(applog.LevelFromEnv())
	loadEnvFile()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	a.cfg = cfg

	keys, err := keystore.Open(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	a.keys = keys

	client, err := api.New(cfg.APIBaseURL, keys, cfg.HTTPTimeout)
	if err != nil {
		keys.Close()
		return fmt.Errorf("api client: %w", err)
	}
	a.client = client

	// AMQP is optional: no URL means mutation events are not published.
	var events store.EventPublisher
	if cfg.AMQPURL != "" {
		ac, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("AMQP unavailable, mutation events disabled",
				applog.FieldComponent, applog.ComponentCLI,
				applog.FieldError, err)
		} else {
			a.events = ac
			events = ac
		}
	}

	var push store.PushRegistrar
	if cfg.PushDeviceToken != "" {
		push = store.NewPushTokenRegistrar(client, cfg.PushDeviceToken)
	}
	a.session = store.NewSession(client, keys, push)
	a.transactions = store.NewTransactions(client, events)
	a.dashboard = store.NewDashboard(client, cfg.TrendsCacheSize, cfg.TrendsCacheTTL)

	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if a.events != nil {
		a.events.Close()
	}
	if a.keys != nil {
		a.keys.Close()
	}
}

// requireAuth restores the session from the stored token and fails if
// it is missing or expired.
func requireAuth(cmd *cobra.Command) error {
	a.session.CheckToken(cmd.Context())
	if a.session.State() != store.StateAuthenticated {
		if msg := a.session.Err(); msg != "" {
			return fmt.Errorf("%s, run 'saldo login'", msg)
		}
		return fmt.Errorf("not logged in, run 'saldo login'")
	}
	return nil
}

// storeErr turns a store failure flag into a command error.
func storeErr(msg string) error {
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Errorf("%s", msg)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
