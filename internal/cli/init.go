package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	applog "saldo/internal/log"
)

// loadEnvFile loads a .env file from the working directory when one
// exists. A missing file is not an error.
func loadEnvFile() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load .env file",
			applog.FieldComponent, applog.ComponentCLI,
			applog.FieldError, err)
	}
}
