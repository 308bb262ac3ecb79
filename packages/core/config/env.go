package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "HTTPREPRO_"

// LoadEnv loads a dotenv file into the process environment. An empty path
// tries ./.env and ignores its absence; an explicit path must exist.
// Variables already set in the environment win over the file.
func LoadEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no .env file loaded", "error", err)
				return nil
			}
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// FromEnv builds a config holding only the HTTPREPRO_* values that are set,
// ready to be merged over a file config.
func FromEnv() (*Config, error) {
	c := &Config{
		URL:          getEnv("URL"),
		Mode:         getEnv("MODE"),
		Variant:      getEnv("VARIANT"),
		Proxy:        getEnv("PROXY"),
		NotifyOn:     getEnv("NOTIFY_ON"),
		SlackWebhook: getEnv("SLACK_WEBHOOK"),
		TeamsWebhook: getEnv("TEAMS_WEBHOOK"),
		LogFile:      getEnv("LOG_FILE"),
		LogLevel:     getEnv("LOG_LEVEL"),
	}

	var err error
	if c.Count, err = getEnvInt("COUNT"); err != nil {
		return nil, err
	}
	if c.Rate, err = getEnvFloat("RATE"); err != nil {
		return nil, err
	}
	if c.FollowRedirects, err = getEnvBool("FOLLOW_REDIRECTS"); err != nil {
		return nil, err
	}
	if c.MaxRedirects, err = getEnvInt("MAX_REDIRECTS"); err != nil {
		return nil, err
	}
	if c.Verbose, err = getEnvBool("VERBOSE"); err != nil {
		return nil, err
	}
	if c.NoColor, err = getEnvBool("NO_COLOR"); err != nil {
		return nil, err
	}

	// HTTPREPRO_HEADERS="X-A: 1, X-B: 2"
	if raw := getEnv("HEADERS"); raw != "" {
		c.Headers = make(map[string]string)
		for _, pair := range strings.Split(raw, ",") {
			key, value, ok := strings.Cut(pair, ":")
			if !ok || strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("%sHEADERS: invalid header %q", EnvPrefix, strings.TrimSpace(pair))
			}
			c.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	return c, nil
}

func getEnv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func getEnvInt(name string) (int, error) {
	val := getEnv(name)
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	return i, nil
}

func getEnvFloat(name string) (float64, error) {
	val := getEnv(name)
	if val == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	return f, nil
}

func getEnvBool(name string) (*bool, error) {
	val := getEnv(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	return &b, nil
}
