package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local then .env from the working directory. Values
// already present in the environment are never overwritten, so the process
// environment wins over .env.local, which wins over .env.
// It returns the files that were loaded.
func LoadDotEnv() []string {
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
