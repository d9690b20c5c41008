package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultDebounceDelay  = 300 * time.Millisecond
	defaultSearchPageSize = 20
	defaultMaxCacheSize   = 50
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func (c *Config) GetPort() string {
	port := c.config.GetString("PORT")
	if len(port) == 0 {
		port = c.config.GetString("server.port")
	}
	if len(port) == 0 {
		port = defaultPort
	}

	return port
}

func (c *Config) GetLogLevel() string {
	level := c.config.GetString("LOG_LEVEL")
	if len(level) == 0 {
		level = c.config.GetString("log.level")
	}
	if len(level) == 0 {
		level = defaultLogLevel
	}

	return level
}

// GetDebounceDelay is the delay new search sessions wait for a query to settle.
func (c *Config) GetDebounceDelay() time.Duration {
	ms, ok := c.getInt("SEARCH_DEBOUNCE_MS", "search.debounce_ms")
	if !ok || ms < 0 {
		return defaultDebounceDelay
	}

	return time.Duration(ms) * time.Millisecond
}

func (c *Config) GetSearchPageSize() int {
	pageSize, ok := c.getInt("SEARCH_PAGE_SIZE", "search.page_size")
	if !ok || pageSize <= 0 {
		return defaultSearchPageSize
	}

	return pageSize
}

// GetMaxCacheSize bounds the number of result pages cached per session. 0
// disables caching.
func (c *Config) GetMaxCacheSize() int {
	size, ok := c.getInt("SEARCH_MAX_CACHE_SIZE", "search.max_cache_size")
	if !ok || size < 0 {
		return defaultMaxCacheSize
	}

	return size
}

// getInt reads envKey first and falls back to yamlKey. ok is false when
// neither is set or the value is not an integer.
func (c *Config) getInt(envKey string, yamlKey string) (int, bool) {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(yamlKey)
	}
	if len(value) == 0 {
		return 0, false
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring non-integer config value", "key", envKey, "value", value)
		return 0, false
	}

	return parsed, true
}

func (c *Config) GetKVDBPath() string {
	kvdbPath := c.config.GetString("KVDB_PATH")
	if len(kvdbPath) == 0 {
		kvdbPath = c.config.GetString("database.kvdb_path")
	}

	return kvdbPath
}

func (c *Config) GetIndexPath() string {
	indexPath := c.config.GetString("INDEX_PATH")
	if len(indexPath) == 0 {
		indexPath = c.config.GetString("database.index_path")
	}

	return indexPath
}

func (c *Config) GetStoragePath() string {
	storagePath := c.config.GetString("STORAGE_PATH")
	if len(storagePath) == 0 {
		storagePath = c.config.GetString("database.storage_path")
	}

	return storagePath
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
