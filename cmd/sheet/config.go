package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/markusbuck/spreadsheet/packages/formula"
)

// Config is the sheet command's configuration file
type Config struct {
	// Version is written when saving and required when loading
	Version string      `yaml:"version" validate:"required"`
	Store   StoreConfig `yaml:"store"`
	Log     LogConfig   `yaml:"log"`
	Names   NamesConfig `yaml:"names"`
}

type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
	// Kind is inferred from Path's extension when empty
	Kind string `yaml:"kind" validate:"omitempty,oneof=json yaml sqlite badger"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto text json"`
	// File additionally receives every record as JSON
	File string `yaml:"file"`
}

// NamesConfig is the cell naming policy
type NamesConfig struct {
	UpperCase bool   `yaml:"upper_case"`
	Pattern   string `yaml:"pattern" validate:"omitempty,regexp"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		Version: "default",
		Store:   StoreConfig{Path: "sheet.json"},
		Log:     LogConfig{Level: "warn", Format: "auto"},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// LoadConfig reads path over the defaults. an empty path means defaults
// only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config %s does not exist", path)
		}
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks every field against its constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Normalizer returns the cell name normalizer for the naming policy
func (n NamesConfig) Normalizer() formula.Normalizer {
	if n.UpperCase {
		return strings.ToUpper
	}
	return nil
}

// Validator returns the cell name validator for the naming policy
func (n NamesConfig) Validator() formula.Validator {
	if n.Pattern == "" {
		return nil
	}
	return regexp.MustCompile(n.Pattern).MatchString
}
