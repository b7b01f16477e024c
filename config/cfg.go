package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"runtime"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"fmfc/common"
	"fmfc/fmf"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	CategoryConfig struct {
		Keywords   []string `yaml:"keywords" validate:"dive,required"`
		Containers []string `yaml:"containers" validate:"dive,required"`
	}

	ParserConfig struct {
		Extension  string                    `yaml:"extension" validate:"required,startswith=."`
		Workers    int                       `yaml:"workers" validate:"gte=0,lte=1024"`
		Categories map[string]CategoryConfig `yaml:"categories" validate:"dive,keys,oneof=players clubs competitions,endkeys"`
	}

	OutputConfig struct {
		Format    common.OutputFmt `yaml:"format" validate:"gte=0"`
		Documents bool             `yaml:"documents"`
		Indent    int              `yaml:"indent" validate:"min=0,max=8"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Parser    ParserConfig   `yaml:"parser"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// Rules converts configured categories to parser rules. Unknown categories
// are rejected by validation and ignored here.
func (conf *ParserConfig) Rules() map[fmf.Category]fmf.CategoryRule {
	rules := make(map[fmf.Category]fmf.CategoryRule, len(conf.Categories))
	for _, c := range fmf.Categories {
		cc, ok := conf.Categories[c.String()]
		if !ok {
			continue
		}
		rules[c] = fmf.CategoryRule{Keywords: cc.Keywords, Containers: cc.Containers}
	}
	return rules
}

// EffectiveWorkers returns number of parallel workers, 0 means all CPUs.
func (conf *ParserConfig) EffectiveWorkers() int {
	if conf.Workers <= 0 {
		return runtime.NumCPU()
	}
	return conf.Workers
}

// Options returns parser options for the configuration.
func (conf *ParserConfig) Options() fmf.Options {
	return fmf.Options{
		Extension: conf.Extension,
		Workers:   conf.EffectiveWorkers(),
		Rules:     conf.Rules(),
	}
}
