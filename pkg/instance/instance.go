package instance

import (
	"os"

	"github.com/propscout/propscout-backend/pkg/env"
)

// GetID identifies the running process in logs. Heroku-style DYNO wins,
// then WORKER_ID, then the hostname.
func GetID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return env.First(host, "DYNO", "WORKER_ID")
}
