package database_test

import (
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/appclacks/mtbi/internal/database"
)

var TestComponent *database.Database

// InitTestDB connects to the database whose host is set in the
// MTBI_TEST_DATABASE environment variable.
func InitTestDB(logger *slog.Logger, host string) *database.Database {

	config := database.Configuration{
		Username:   "mtbi",
		Password:   "mtbi",
		Database:   "mtbi",
		Host:       host,
		Port:       5432,
		SSLMode:    "disable",
		Migrations: "../../dev/migrations",
	}
	c, err := database.New(logger, config)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	err = cleanup(c)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info("db cleanup done")
	return c

}

func cleanup(c *database.Database) error {

	for _, query := range database.CleanupQueries {
		_, err := c.Exec(query)
		if err != nil {
			return fmt.Errorf("fail to clean DB on query %s: %w", query, err)
		}
	}
	return nil
}

func component(t *testing.T) *database.Database {
	t.Helper()
	if TestComponent == nil {
		t.Skip("MTBI_TEST_DATABASE is not set")
	}
	return TestComponent
}

func TestMain(m *testing.M) {
	logger := slog.Default()
	if host := os.Getenv("MTBI_TEST_DATABASE"); host != "" {
		TestComponent = InitTestDB(logger, host)
	}
	exitVal := m.Run()
	if TestComponent != nil {
		TestComponent.Close()
	}
	os.Exit(exitVal)

}
