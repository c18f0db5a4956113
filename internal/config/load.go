package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"
)

// errInvalidPipeline replaces decode errors of the pipeline configuration.
// Decoder messages may quote the payload, which carries private keys.
var errInvalidPipeline = errors.New("the supplied Azure pipeline configuration was invalid")

// Source is where one configuration document comes from. File wins over
// Inline when both are set.
type Source struct {
	Inline string
	File   string
}

func (s Source) read(doc, envName string) ([]byte, error) {
	if s.File != "" {
		data, err := os.ReadFile(s.File)
		if err != nil {
			return nil, &Error{Doc: doc, Err: err}
		}
		return data, nil
	}
	if s.Inline == "" {
		return nil, &Error{Doc: doc, Err: fmt.Errorf("please provide %s config via the %q environment variable or a config file", doc, envName)}
	}
	return []byte(s.Inline), nil
}

// LoadPipeline reads, decodes and validates the pipeline configuration.
func LoadPipeline(src Source) (*PipelineConfig, error) {
	data, err := src.read("pipeline", PipelineConfigEnv)
	if err != nil {
		return nil, err
	}
	return ParsePipeline(data)
}

// ParsePipeline decodes and validates a pipeline configuration document.
func ParsePipeline(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, &Error{Doc: "pipeline", Err: errInvalidPipeline}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Doc: "pipeline", Err: err}
	}
	return &cfg, nil
}

// LoadInfra reads, decodes and validates the infrastructure configuration.
func LoadInfra(src Source) (*InfraConfig, error) {
	data, err := src.read("infrastructure", InfraConfigEnv)
	if err != nil {
		return nil, err
	}
	return ParseInfra(data)
}

// ParseInfra decodes and validates an infrastructure configuration document.
func ParseInfra(data []byte) (*InfraConfig, error) {
	var cfg InfraConfig
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, &Error{Doc: "infrastructure", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Doc: "infrastructure", Err: err}
	}
	return &cfg, nil
}

// decodeStrict decodes one JSON or YAML document and rejects unknown fields.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

type packageJSON struct {
	Version string `json:"version"`
}

// PackageVersion reads the "version" field of <codeDir>/package.json.
func PackageVersion(codeDir string) (semver.Version, error) {
	path := filepath.Join(codeDir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return semver.Version{}, fmt.Errorf("config: package version: %w", err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return semver.Version{}, fmt.Errorf("config: package version: decode %s: %w", path, err)
	}
	if pkg.Version == "" {
		return semver.Version{}, fmt.Errorf("config: package version: %s has no version", path)
	}
	v, err := semver.Parse(pkg.Version)
	if err != nil {
		return semver.Version{}, fmt.Errorf("config: package version: %s: %w", path, err)
	}
	return v, nil
}
