// Package config reads the Java-properties-style key=value file that
// configures the proxy's thread pool size and forwarding strategy.
package config

import (
	"bufio"
	"os"
	"strings"

	apperrors "github.com/carlosrabelo/tcpforward/pkg/errors"
	"github.com/carlosrabelo/tcpforward/pkg/logger"
	"github.com/carlosrabelo/tcpforward/pkg/metrics"
)

// Config loads and exposes key=value properties from a file.
type Config struct {
	Filename   string
	properties map[string]string
}

// New creates a Config bound to filename. Call Read before Get.
func New(filename string) *Config {
	return &Config{Filename: filename}
}

// Read loads the properties file into memory. Comment lines (# or !) and
// blank lines are skipped, matching the Java properties line format. A
// read failure is fatal to bootstrap.
func (c *Config) Read() error {
	file, err := os.Open(c.Filename)
	if err != nil {
		metrics.IncrementErrors()
		return apperrors.Wrap(apperrors.CodeConfigRead, "could not read properties file", err)
	}
	defer file.Close()

	props := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.IndexAny(line, "=:")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		props[key] = value
	}
	if err := scanner.Err(); err != nil {
		metrics.IncrementErrors()
		return apperrors.Wrap(apperrors.CodeConfigRead, "could not read properties file", err)
	}

	c.properties = props
	metrics.IncrementOperations()
	logger.Debug("loaded %d propert(y/ies) from %s", len(props), c.Filename)
	return nil
}

// Get returns the value for key, or a tagged *apperrors.AppError: InvalidKey
// for an empty key, MissingProperty if the key is absent.
func (c *Config) Get(key string) (string, error) {
	if key == "" {
		return "", apperrors.New(apperrors.CodeInvalidKey, "property key must not be empty")
	}
	value, ok := c.properties[key]
	if !ok {
		return "", apperrors.New(apperrors.CodeMissingProperty, "property not found: "+key)
	}
	return value, nil
}

// GetOrDefault returns the property value, or def if missing or invalid.
func (c *Config) GetOrDefault(key, def string) string {
	value, err := c.Get(key)
	if err != nil {
		return def
	}
	return value
}
