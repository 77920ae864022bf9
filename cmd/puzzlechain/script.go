package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"puzzlechain/sdk"
)

// Script is a replayable session: programs to deploy, then calls in order.
type Script struct {
	Deploy []Deployment `yaml:"deploy"`
	Steps  []Step       `yaml:"steps"`
}

type Deployment struct {
	Address sdk.Address    `yaml:"address"`
	Program string         `yaml:"program"`
	Admin   sdk.Address    `yaml:"admin"`
	Config  map[string]any `yaml:"config"`
}

// Step calls one exported method. Advance closes that many seconds of ledger
// first. Fails names the expected error kind, Expect the expected return value.
type Step struct {
	Name     string      `yaml:"name"`
	Advance  uint64      `yaml:"advance"`
	Contract sdk.Address `yaml:"contract"`
	Caller   sdk.Address `yaml:"caller"`
	Method   string      `yaml:"method"`
	Payload  string      `yaml:"payload"`
	Expect   *string     `yaml:"expect"`
	Fails    string      `yaml:"fails"`
}

func parseScript(raw []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "parse script")
	}
	for i, d := range s.Deploy {
		if !d.Address.IsValid() || !d.Admin.IsValid() || d.Program == "" {
			return nil, errors.Errorf("deploy %d: address, admin and program are required", i)
		}
	}
	for i, st := range s.Steps {
		if !st.Contract.IsValid() || !st.Caller.IsValid() || st.Method == "" {
			return nil, errors.Errorf("step %d: contract, caller and method are required", i)
		}
	}
	return &s, nil
}

func loadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return parseScript(raw)
}
