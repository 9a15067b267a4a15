// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Config and logger setup, date flags, point files and JSON output
package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harper/recall-tracker/internal/app"
	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// loadConfig reads configuration and builds a logger honoring --quiet and --verbose
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	mode := cfg.LogMode
	switch {
	case quiet:
		mode = "nop"
	case verbose:
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func openApp() (*app.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, log)
}

// resolveDate parses a YYYY-MM-DD flag value, defaulting to today in the configured timezone
func resolveDate(raw string, cfg *config.Config) (models.Date, error) {
	if raw == "" {
		return models.Today(cfg.Location()), nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, fmt.Errorf("--date: %w", err)
	}
	return d, nil
}

// readPoints reads one point per line, dropping blank lines and leading bullets
func readPoints(r io.Reader) ([]string, error) {
	var points []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for _, bullet := range []string{"- ", "* ", "• "} {
			line = strings.TrimSpace(strings.TrimPrefix(line, bullet))
		}
		if line != "" {
			points = append(points, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func readPointsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	points, err := readPoints(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return points, nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", data)
	return nil
}
