package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gardar/ocralign/pkg/align"
	"github.com/gardar/ocralign/pkg/gdocai"
)

// yamlConfig is the YAML configuration file. Unset keys keep the defaults.
type yamlConfig struct {
	Threshold         *int           `yaml:"threshold"`
	Script            string         `yaml:"script"`
	NFC               *bool          `yaml:"nfc"`
	Confusions        string         `yaml:"confusions"`
	Workers           *int           `yaml:"workers"`
	TopConfusions     *int           `yaml:"top_confusions"`
	ReferenceEncoding string         `yaml:"reference_encoding"`
	GDocAI            *gdocai.Config `yaml:"gdocai"`
}

// loadConfig reads a YAML configuration file
func loadConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &yc, nil
}

// apply overlays the file values on cfg.
func (yc *yamlConfig) apply(cfg *align.Config) {
	if yc == nil {
		return
	}
	if yc.Threshold != nil {
		cfg.Threshold = *yc.Threshold
	}
	if yc.Script != "" {
		cfg.Script = yc.Script
	}
	if yc.NFC != nil {
		cfg.NFC = *yc.NFC
	}
	if yc.Confusions != "" {
		cfg.Confusions = align.ConfusionSource(yc.Confusions)
	}
	if yc.Workers != nil {
		cfg.Workers = *yc.Workers
	}
	if yc.TopConfusions != nil {
		cfg.TopConfusions = *yc.TopConfusions
	}
}

// options are the command-line settings that override the file.
type options struct {
	set         map[string]bool // Flags given on the command line
	threshold   int
	script      string
	nfc         bool
	confusions  string
	workers     int
	top         int
	refEncoding string
}

// buildConfig resolves the alignment config: defaults, then the file, then
// the flags that were given.
func buildConfig(yc *yamlConfig, o options) align.Config {
	cfg := align.DefaultConfig()
	yc.apply(&cfg)

	if o.set["threshold"] {
		cfg.Threshold = o.threshold
	}
	if o.set["script"] {
		cfg.Script = o.script
	}
	if o.set["nfc"] {
		cfg.NFC = o.nfc
	}
	if o.set["confusions"] {
		cfg.Confusions = align.ConfusionSource(o.confusions)
	}
	if o.set["workers"] {
		cfg.Workers = o.workers
	}
	if o.set["top"] {
		cfg.TopConfusions = o.top
	}
	return cfg
}

// referenceEncoding picks the flag over the file value.
func referenceEncoding(yc *yamlConfig, o options) string {
	if o.set["ref-encoding"] || yc == nil {
		return o.refEncoding
	}
	return yc.ReferenceEncoding
}
