package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/scribehq/scribe-client/pkg/client"
	"github.com/scribehq/scribe-client/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "scribectl",
	Short: "Command-line client for the Scribe blogging backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(getEnv("SCRIBE_LOG_LEVEL", "warn")),
			Pretty: true,
			Output: os.Stderr,
		})
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds a gateway from the environment. SCRIBE_REDIS_URL is
// optional; without it the response cache is simply off.
func newClient() (*client.Client, error) {
	cfg := client.DefaultConfig(
		getEnv("SCRIBE_BASE_URL", "http://localhost:8000"),
		"scribectl/0.1.0",
	)
	if redisURL := os.Getenv("SCRIBE_REDIS_URL"); redisURL != "" {
		cfg.Redis = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	return client.New(cfg)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
