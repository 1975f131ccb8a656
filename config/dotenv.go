package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/andrewpaige1/mindflow-api/logging"
)

// LoadDotEnv loads .env into the process environment unless running in
// production, where the platform provides the variables.
func LoadDotEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") != "" {
		return
	}
	if err := godotenv.Load(); err != nil {
		logging.Warn().Err(err).Msg(".env file not found, environment variables might not be loaded")
	}
}
