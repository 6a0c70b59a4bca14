package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads configuration with layered precedence (lowest to highest):
// built-in defaults, ~/.aeorc.yml, ./.aeorc.yml, environment, and finally
// an explicit config file when given. Missing files are skipped; malformed
// files degrade to the layers below them.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("CONTEXTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		mergeFile(v, filepath.Join(home, RCFileName))
	}
	if cwd, err := os.Getwd(); err == nil {
		mergeFile(v, filepath.Join(cwd, RCFileName))
	}

	// An explicitly named file is the one place a read failure is fatal;
	// the user asked for exactly that file.
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(timeoutDecodeHook),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// timeoutDecodeHook decodes durations from rc files and the environment.
// Bare numbers mean seconds; strings go through ParseTimeout.
func timeoutDecodeHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		return ParseTimeout(v)
	}
	return data, nil
}

// mergeFile layers one rc file into v, ignoring missing or malformed files.
func mergeFile(v *viper.Viper, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	v.SetConfigFile(path)
	v.MergeInConfig()
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("max_pages", cfg.MaxPages)
	v.SetDefault("concurrency", cfg.Concurrency)
	v.SetDefault("single", cfg.Single)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("save", cfg.Save)
	v.SetDefault("regression_threshold", cfg.RegressionThreshold)
	v.SetDefault("bots", cfg.Bots)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("browser", cfg.Browser)
	v.SetDefault("history.backend", cfg.History.Backend)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.uri", cfg.History.URI)
	v.SetDefault("history.database", cfg.History.Database)
}
