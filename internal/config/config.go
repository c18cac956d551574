// Package config loads filesorter settings from a config file, FILESORTER_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"filesorter/pkg/category"
	"filesorter/pkg/undolog"
)

// EnvPrefix is the prefix for environment overrides, e.g. FILESORTER_UNDO_LOG.
const EnvPrefix = "FILESORTER"

// CategorySpec is one category entry of the config file. Extensions may be
// written as a list or as a comma-separated string.
type CategorySpec struct {
	Name       string   `mapstructure:"name"`
	Extensions []string `mapstructure:"extensions"`
}

// Config holds the effective settings.
type Config struct {
	UndoLog            string         `mapstructure:"undo_log"`
	RecordDestinations bool           `mapstructure:"record_destinations"`
	SkipFiles          []string       `mapstructure:"skip_files"`
	CategoriesFile     string         `mapstructure:"categories_file"`
	Categories         []CategorySpec `mapstructure:"categories"`
	Logging            Logging        `mapstructure:"logging"`

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

// Logging holds logger settings.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps config keys to the flag names bound to them.
var flagKeys = map[string]string{
	"undo_log":        "undo-log",
	"categories_file": "categories-file",
	"logging.level":   "log-level",
	"logging.format":  "log-format",
}

// Load reads configuration. An explicit cfgFile must exist; otherwise
// $HOME/.config/filesorter/config.yaml and ./config.yaml are searched and a
// missing file is not an error. Flags that were set override everything.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "filesorter"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("undo_log", undolog.DefaultPath)
	v.SetDefault("record_destinations", true)
	v.SetDefault("skip_files", []string{})
	v.SetDefault("categories_file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.UndoLog) == "" {
		return errors.New("config: undo_log must not be empty")
	}

	for i, spec := range c.Categories {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("config: categories[%d]: %w: empty name", i, category.ErrInvalidCategory)
		}
	}

	return nil
}

// Table builds the category table: the defaults, then categories from the
// config file, then the categories file, then each "Name=.a,.b" definition
// in overrides. Later sources override earlier ones by name.
func (c *Config) Table(overrides []string) (*category.Table, error) {
	table := category.Default()

	for _, spec := range c.Categories {
		table.Set(strings.TrimSpace(spec.Name), spec.Extensions)
	}

	if c.CategoriesFile != "" {
		fromFile, err := category.LoadFile(c.CategoriesFile)
		if err != nil {
			return nil, err
		}
		table.Merge(fromFile)
	}

	for _, def := range overrides {
		parsed, err := category.Parse(def)
		if err != nil {
			return nil, err
		}
		table.Set(parsed.Name, parsed.Extensions)
	}

	return table, nil
}
