package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"timebank-go/pkg/logger"
)

const dotenvFilename = ".env"

// loadDotEnv exports the variables of a .env file that are not already set in
// the environment. DOTENV_PATH names the file; otherwise the nearest .env
// above the working directory is used.
func loadDotEnv(log logger.Logger) error {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		found, ok := nearestFile(dotenvFilename)
		if !ok {
			log.Debug("dotenv: no file found")
			return nil
		}
		path = found
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	values, err := readDotEnv(file)
	if err != nil {
		return fmt.Errorf("dotenv %s: %w", path, err)
	}

	var exported []string
	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
		exported = append(exported, key)
	}

	log.Info("dotenv: loaded variables", "path", path, "exported", len(exported), "skipped", len(values)-len(exported))
	return nil
}

func nearestFile(name string) (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// readDotEnv parses KEY=VALUE lines. Later keys win.
func readDotEnv(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := splitKeyValue(strings.TrimPrefix(line, "export "))
		if !ok {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE", lineNo)
		}
		values[key] = value
	}
	return values, scanner.Err()
}

func splitKeyValue(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	value = strings.TrimSpace(value)

	if n := len(value); n >= 2 && value[0] == value[n-1] {
		switch value[0] {
		case '"':
			if unquoted, err := strconv.Unquote(value); err == nil {
				return key, unquoted, true
			}
			return key, value[1 : n-1], true
		case '\'':
			return key, value[1 : n-1], true
		}
	}

	// An unquoted value ends at " #".
	if idx := strings.Index(value, " #"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	if idx := strings.Index(value, "\t#"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return key, value, true
}
