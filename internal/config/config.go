// Package config loads the repository's TOML configuration file. Field layout mirrors the
// recognized-keys table directly. Load decodes the file over Default(), so
// keys absent from the file keep their default values. A chunking override
// of zero is treated as unset (see profile.go).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

type User struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type Chunking struct {
	Profile    string `toml:"profile"` // default/video/small/auto
	MinSize    uint32 `toml:"min_size"`
	AvgSize    uint32 `toml:"avg_size"`
	MaxSize    uint32 `toml:"max_size"`
	QueueBound int    `toml:"queue_bound"`
}

type TransparentDecompression struct {
	Enabled           bool    `toml:"enabled"`
	MaxMemory         int64   `toml:"max_memory"`
	MaxRatio          float64 `toml:"max_ratio"`
	ValidateRoundtrip bool    `toml:"validate_roundtrip"`
}

type Hybrid struct {
	AttributesFile string `toml:"attributes_file"`
}

type IgnoreConfig struct {
	File string `toml:"file"`
}

// Config is the decoded form of <.dits>/config.
type Config struct {
	User                     User                     `toml:"user"`
	Chunking                 Chunking                 `toml:"chunking"`
	TransparentDecompression TransparentDecompression `toml:"transparent_decompression"`
	Hybrid                   Hybrid                   `toml:"hybrid"`
	Ignore                   IgnoreConfig             `toml:"ignore"`
}

// Default returns the configuration in effect when <.dits>/config is
// absent or omits a key.
func Default() Config {
	return Config{
		Chunking: Chunking{
			Profile:    "default",
			QueueBound: 64,
		},
		TransparentDecompression: TransparentDecompression{
			Enabled:   true,
			MaxMemory: 2 << 30,
			MaxRatio:  100,
		},
		Hybrid: Hybrid{AttributesFile: ".ditsattributes"},
		Ignore: IgnoreConfig{File: ".ditsignore"},
	}
}

// Load reads and decodes path, overlaying decoded values onto Default()
// so keys absent from the file keep their default. A missing file
// returns Default() unmodified.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save atomically writes cfg to path as TOML (temp-file-then-rename, the
// same pattern objstore and snapshot use for every other durable write).
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}
