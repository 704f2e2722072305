package configuration

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v2"
)

// Parser loads a Configuration from YAML bytes and then overlays
// environment variables, following the teacher's scheme (configuration/parser.go):
// v.Abc may be replaced by PREFIX__ABC, v.Abc.Xyz by PREFIX__ABC__XYZ,
// and so on, walking struct fields by name. Unlike the teacher's Parser,
// this one has no multi-version ConversionFunc table: Configuration has
// shipped exactly one schema version.
type Parser struct {
	prefix string
	env    map[string]string
}

// NewParser returns a Parser that overlays environment variables
// prefixed with prefix (conventionally upper-cased, e.g. "QUARTERMASTER").
func NewParser(prefix string) *Parser {
	p := &Parser{prefix: strings.ToUpper(prefix), env: make(map[string]string)}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			p.env[parts[0]] = parts[1]
		}
	}
	return p
}

// Parse decodes in as YAML into a Configuration, checks its version,
// applies the environment overlay, and fills in defaults.
func (p *Parser) Parse(in []byte) (*Configuration, error) {
	var c Configuration
	if err := yaml.Unmarshal(in, &c); err != nil {
		return nil, fmt.Errorf("configuration: parsing yaml: %w", err)
	}
	if c.Version == "" {
		c.Version = CurrentVersion
	}
	if c.Version != CurrentVersion {
		return nil, fmt.Errorf("configuration: unsupported version %q", c.Version)
	}

	if err := p.overlayEnv(reflect.ValueOf(&c).Elem(), p.prefix); err != nil {
		return nil, fmt.Errorf("configuration: applying environment overrides: %w", err)
	}

	c.ApplyDefaults()
	return &c, nil
}

// overlayEnv walks v's fields, replacing any whose PREFIX__PATH
// environment variable is set, and recursing into nested structs.
func (p *Parser) overlayEnv(v reflect.Value, prefix string) error {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldPrefix := strings.ToUpper(prefix + "__" + v.Type().Field(i).Name)

		if raw, ok := p.env[fieldPrefix]; ok {
			dst := reflect.New(field.Type())
			if err := yaml.Unmarshal([]byte(raw), dst.Interface()); err != nil {
				return fmt.Errorf("%s: %w", fieldPrefix, err)
			}
			field.Set(dst.Elem())
		}

		if field.Kind() == reflect.Struct {
			if err := p.overlayEnv(field, fieldPrefix); err != nil {
				return err
			}
		}
	}
	return nil
}
