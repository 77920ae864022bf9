package contract

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"puzzlechain/sdk"
)

// TTLConfig is the default keep-alive window, in ledger sequences, for new entries.
type TTLConfig struct {
	Low  uint64 `yaml:"low"`
	High uint64 `yaml:"high"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HostConfig is the YAML document a host boots from.
type HostConfig struct {
	Ledger       sdk.Ledger `yaml:"ledger"`
	TTL          TTLConfig  `yaml:"ttl"`
	MaxCallDepth int        `yaml:"max_call_depth"`
	Log          LogConfig  `yaml:"log"`
}

// DefaultHostConfig mirrors a freshly started chain.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		Ledger:       sdk.Ledger{Timestamp: 0, Sequence: 1},
		TTL:          TTLConfig{Low: 17_280, High: 535_680},
		MaxCallDepth: 8,
		Log:          LogConfig{Level: "info", Format: "console"},
	}
}

// Validate reports every problem at once instead of the first one.
func (c HostConfig) Validate() error {
	var result *multierror.Error
	if c.TTL.High == 0 {
		result = multierror.Append(result, errors.New("ttl.high must be positive"))
	}
	if c.TTL.Low > c.TTL.High {
		result = multierror.Append(result, errors.Errorf("ttl.low %d above ttl.high %d", c.TTL.Low, c.TTL.High))
	}
	if c.MaxCallDepth < 1 {
		result = multierror.Append(result, errors.Errorf("max_call_depth %d below 1", c.MaxCallDepth))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		result = multierror.Append(result, errors.Errorf("unknown log format %q", c.Log.Format))
	}
	return result.ErrorOrNil()
}

// ParseHostConfig overlays the YAML document on the defaults and validates the result.
func ParseHostConfig(raw []byte) (HostConfig, error) {
	cfg := DefaultHostConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse host config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid host config")
	}
	return cfg, nil
}

// LoadHostConfig reads and parses a YAML file.
func LoadHostConfig(path string) (HostConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return HostConfig{}, errors.Wrapf(err, "read %s", path)
	}
	return ParseHostConfig(raw)
}
