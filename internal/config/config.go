package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"tsh/internal/jobs"
)

const (
	DefaultPrompt      = "tsh> "
	DefaultHistorySize = 1000
	defaultFileName    = ".tsh.yml"
	historyFileName    = ".tsh_history.db"
)

type Config struct {
	Prompt      string `yaml:"prompt"`
	EmitPrompt  bool   `yaml:"emit_prompt"`
	Verbose     bool   `yaml:"verbose"`
	HomeDir     string `yaml:"home_dir"`
	HistoryFile string `yaml:"history_file"`
	HistorySize int    `yaml:"history_size"`
	MaxJobs     int    `yaml:"max_jobs"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"prompt":       DefaultPrompt,
		"emit_prompt":  true,
		"verbose":      false,
		"home_dir":     "",
		"history_file": "",
		"history_size": DefaultHistorySize,
		"max_jobs":     jobs.DefaultCapacity,
	}
}

// BindFlags registers the command line flags that Load understands.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "configuration file (default ~/"+defaultFileName+")")
	fs.BoolP("verbose", "v", false, "print additional diagnostic information")
	fs.BoolP("no-prompt", "p", false, "do not emit a command prompt")
}

// Load builds a Config from defaults, then the YAML file, then flags.
// A missing default file is ignored; a missing file named by --config is not.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	file, explicit := "", false
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			file, explicit = f.Value.String(), true
		}
	}
	if file == "" {
		if home, err := os.UserHomeDir(); err == nil {
			file = filepath.Join(home, defaultFileName)
		}
	}
	if file != "" {
		m, err := readFile(file)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return nil, err
		default:
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return nil, fmt.Errorf("load %s: %w", file, err)
			}
		}
	}

	if flags != nil {
		if err := applyFlags(k, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.finish()
}

func readFile(file string) (map[string]interface{}, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return m, nil
}

func applyFlags(k *koanf.Koanf, flags *pflag.FlagSet) error {
	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		if err := k.Set("verbose", v); err != nil {
			return err
		}
	}
	if flags.Changed("no-prompt") {
		p, err := flags.GetBool("no-prompt")
		if err != nil {
			return err
		}
		if err := k.Set("emit_prompt", !p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) finish() error {
	if c.MaxJobs < 1 {
		return fmt.Errorf("max_jobs must be positive, got %d", c.MaxJobs)
	}
	if c.HistorySize < 1 {
		c.HistorySize = DefaultHistorySize
	}
	if c.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.HomeDir = home
	}
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.HomeDir, historyFileName)
	}
	return nil
}
