package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/firedrill-labs/firedrill/internal/schema"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// substituteEnv replaces ${VAR} references with the values of the matching
// environment variables. Unset variables substitute to the empty string.
func substituteEnv(raw []byte) []byte {
	return envVarPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

func readConfigFile(path string, kind schema.Kind, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	raw = substituteEnv(raw)

	if err := schema.Validate(kind, raw, configType(path)); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType(configType(path))
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// LoadPerf reads, validates and decodes a performance test configuration.
func LoadPerf(path string) (*PerfConfig, error) {
	cfg := &PerfConfig{
		SuccessThreshold:    95,
		MetricsIntervalSecs: 10,
		TimeoutSecs:         30,
	}
	if err := readConfigFile(path, schema.KindPerf, cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAPI reads, validates and decodes an API check configuration.
func LoadAPI(path string) (*APIConfig, error) {
	cfg := &APIConfig{
		Method:      "GET",
		TimeoutSecs: 30,
	}
	if err := readConfigFile(path, schema.KindAPI, cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCollection reads, validates and decodes a collection configuration.
func LoadCollection(path string) (*CollectionConfig, error) {
	cfg := &CollectionConfig{
		TimeoutSecs: 30,
	}
	if err := readConfigFile(path, schema.KindCollection, cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
