package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/knapsack/pkg/cache"
	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// configFileName is the file looked up in the config directory.
const configFileName = "config.toml"

// Config is the on-disk configuration. Flags override every field.
//
//	[solver]
//	method = "auto"
//	memory_threshold = 1073741824
//	ignore_memory_warning = false
//	workers = 4
//	batch_workers = 4
//	timeout = "5m"
//
//	[cache]
//	backend = "file"        # file, redis or none
//	dir = ""
//	redis_url = "redis://localhost:6379/0"
//	namespace = ""
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
//	max_dp_bytes = 0        # 0 uses memory_threshold
type Config struct {
	Solver SolverConfig `toml:"solver"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// SolverConfig holds defaults for solve and batch.
type SolverConfig struct {
	Method              string   `toml:"method"`
	MemoryThreshold     uint64   `toml:"memory_threshold"`
	IgnoreMemoryWarning bool     `toml:"ignore_memory_warning"`
	Workers             int      `toml:"workers"`
	BatchWorkers        int      `toml:"batch_workers"`
	Timeout             Duration `toml:"timeout"`
}

// CacheConfig selects and configures the solution cache.
type CacheConfig struct {
	Backend     string   `toml:"backend"`
	Dir         string   `toml:"dir"`
	RedisURL    string   `toml:"redis_url"`
	RedisPrefix string   `toml:"redis_prefix"`
	Namespace   string   `toml:"namespace"`
	TTL         Duration `toml:"ttl"`
}

// ServerConfig configures serve.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// MaxDPBytes caps DP tables per request; 0 uses the memory threshold.
	MaxDPBytes uint64 `toml:"max_dp_bytes"`
}

// Duration is a time.Duration written as a string ("90s", "5m") in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Solver: SolverConfig{
			Method:          pipeline.DefaultMethod,
			MemoryThreshold: pipeline.DefaultMemoryThreshold,
			Workers:         pipeline.DefaultWorkers,
			BatchWorkers:    pipeline.DefaultBatchWorkers,
		},
		Cache: CacheConfig{
			Backend:     backendFile,
			RedisPrefix: cache.DefaultRedisPrefix,
			TTL:         Duration{cache.TTLSolution},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// loadConfig reads the config at path over the defaults. An empty path
// means the default location, where a missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, configFileName)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// solverOptions converts the solver section into pipeline options.
func (cfg Config) solverOptions() pipeline.Options {
	return pipeline.Options{
		Method:              cfg.Solver.Method,
		IgnoreMemoryWarning: cfg.Solver.IgnoreMemoryWarning,
		MemoryThreshold:     cfg.Solver.MemoryThreshold,
		Workers:             cfg.Solver.Workers,
		BatchWorkers:        cfg.Solver.BatchWorkers,
		Timeout:             cfg.Solver.Timeout.Duration,
	}
}

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(c.Config); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err := c.Out.Write(buf.Bytes())
			return err
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				fmt.Fprintln(c.Out, c.configPath)
				return nil
			}
			dir, err := configDir()
			if err != nil {
				return fmt.Errorf("get config dir: %w", err)
			}
			fmt.Fprintln(c.Out, filepath.Join(dir, configFileName))
			return nil
		},
	})
	return cmd
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
