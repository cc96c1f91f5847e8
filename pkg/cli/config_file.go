package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/scanwf/scanwf/pkg/fileutil"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var configFileLog = logger.New("cli:config_file")

var (
	configSchemaOnce sync.Once
	configSchema     *jsonschema.Resolved
	configSchemaErr  error
)

// ScanConfigSchema returns the JSON schema of the configuration file,
// generated from workflow.ScanConfig.
func ScanConfigSchema() (*jsonschema.Resolved, error) {
	configSchemaOnce.Do(func() {
		schema, err := jsonschema.For[workflow.ScanConfig](nil)
		if err != nil {
			configSchemaErr = fmt.Errorf("failed to generate config schema: %w", err)
			return
		}
		configSchema, configSchemaErr = schema.Resolve(nil)
		if configSchemaErr != nil {
			configSchemaErr = fmt.Errorf("failed to resolve config schema: %w", configSchemaErr)
		}
	})
	return configSchema, configSchemaErr
}

// LoadScanConfig reads the configuration file at path. A missing file yields
// the default configuration and found=false. The file is checked against the
// generated schema and the enumerated fields are validated before defaults
// are filled in.
func LoadScanConfig(path string) (cfg workflow.ScanConfig, found bool, err error) {
	configFileLog.Printf("Loading config: %s", path)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		configFileLog.Print("Config file not found, using defaults")
		return workflow.DefaultScanConfig(), false, nil
	}
	if err != nil {
		return cfg, false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err = ParseScanConfig(data)
	if err != nil {
		return cfg, true, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, true, nil
}

// ParseScanConfig decodes and validates configuration file content.
func ParseScanConfig(data []byte) (workflow.ScanConfig, error) {
	var cfg workflow.ScanConfig
	if len(bytes.TrimSpace(data)) == 0 {
		return workflow.DefaultScanConfig(), nil
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return cfg, fmt.Errorf("invalid YAML: %w", err)
	}
	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return cfg, fmt.Errorf("invalid YAML: %w", err)
	}
	schema, err := ScanConfigSchema()
	if err != nil {
		return cfg, err
	}
	if err := schema.Validate(instance); err != nil {
		return cfg, fmt.Errorf("config does not match schema: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg.WithDefaults(), nil
}

// SaveScanConfig writes cfg to path, creating parent directories.
func SaveScanConfig(path string, cfg workflow.ScanConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.MarshalWithOptions(cfg, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	configFileLog.Printf("Saving config: %s (%d bytes)", path, len(data))
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
