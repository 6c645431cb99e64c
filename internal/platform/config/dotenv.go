package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv merges .env style files into the process environment.
// Variables already set win, and missing files are skipped. It returns the
// files that were read so callers can log them once the logger is up.
// Call it before the first logger.Get so LOG_* values in the file apply.
func LoadDotenv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, err
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
