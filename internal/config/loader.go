package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atlanticdynamic/framelink/internal/interpolation"
	"github.com/pelletier/go-toml/v2"
)

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	if ext := filepath.Ext(path); ext != ".toml" {
		return nil, fmt.Errorf("%w: unsupported format %q, only .toml is supported", ErrFailedToLoadConfig, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	return LoadBytes(data)
}

// LoadReader reads and validates a scenario from r.
func LoadReader(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	return LoadBytes(data)
}

// LoadBytes decodes TOML strictly, so unknown keys are errors, then expands
// environment references and validates.
func LoadBytes(data []byte) (*Scenario, error) {
	s := &Scenario{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	if err := interpolation.Struct(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}
	return s, nil
}
