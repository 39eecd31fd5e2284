package testhelpers

import (
	"os"

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

// NewTestLogger creates a logger suitable for testing. Set TEST_LOG=1 to see output.
func NewTestLogger() infralogger.Logger {
	if os.Getenv("TEST_LOG") == "" {
		return infralogger.NewNop()
	}
	return infralogger.Must(infralogger.Config{
		Level:       "debug",
		Format:      "console",
		Development: true,
	})
}
