package predictors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"gopkg.in/yaml.v3"
)

// Package predictors contains the prediction endpoint registry and the per-field fetchers.

// Predictor describes one upstream prediction endpoint. The URL-escaped name is appended
// to BaseURL, so BaseURL normally ends with the query key (e.g. "?name=").
type Predictor struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Field   domain.Field   `json:"field" yaml:"field"`
	BaseURL string         `json:"base_url" yaml:"base_url"`
	Config  map[string]any `json:"config" yaml:"config"`
}

type registryFile struct {
	Predictors []Predictor `json:"predictors" yaml:"predictors"`
}

// Registry holds exactly one predictor per field.
type Registry struct {
	predictors []Predictor
	byField    map[domain.Field]Predictor
}

// DefaultPredictors returns the public agify/genderize/nationalize endpoints.
func DefaultPredictors() []Predictor {
	return []Predictor{
		{ID: "agify", Name: "Agify", Field: domain.FieldAge, BaseURL: "https://api.agify.io?name="},
		{ID: "genderize", Name: "Genderize", Field: domain.FieldGender, BaseURL: "https://api.genderize.io?name="},
		{ID: "nationalize", Name: "Nationalize", Field: domain.FieldCountry, BaseURL: "https://api.nationalize.io?name="},
	}
}

// DefaultRegistry builds a registry from DefaultPredictors.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultPredictors())
	if err != nil {
		panic(fmt.Sprintf("default predictors invalid: %v", err))
	}
	return reg
}

// LoadRegistry loads predictors from a YAML/JSON file. An empty path yields the defaults.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open predictors file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read predictors file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Predictors)
}

// NewRegistry validates preds and indexes them by field.
func NewRegistry(preds []Predictor) (*Registry, error) {
	if len(preds) == 0 {
		return nil, errors.New("predictors file contains no predictors entries")
	}

	reg := &Registry{
		predictors: make([]Predictor, 0, len(preds)),
		byField:    make(map[domain.Field]Predictor, len(domain.Fields)),
	}
	ids := make(map[string]struct{}, len(preds))

	for i := range preds {
		p := sanitizePredictor(preds[i])
		if err := validatePredictor(p); err != nil {
			return nil, fmt.Errorf("predictor[%d]: %w", i, err)
		}
		if _, exists := ids[p.ID]; exists {
			return nil, fmt.Errorf("duplicate predictor id %q", p.ID)
		}
		if _, exists := reg.byField[p.Field]; exists {
			return nil, fmt.Errorf("duplicate predictor for field %q", p.Field)
		}
		ids[p.ID] = struct{}{}
		reg.byField[p.Field] = p
		reg.predictors = append(reg.predictors, p)
	}

	for _, f := range domain.Fields {
		if _, ok := reg.byField[f]; !ok {
			return nil, fmt.Errorf("no predictor configured for field %q", f)
		}
	}
	return reg, nil
}

// All returns a copy of the configured predictors.
func (r *Registry) All() []Predictor {
	if r == nil {
		return nil
	}
	out := make([]Predictor, len(r.predictors))
	copy(out, r.predictors)
	return out
}

// ForField returns the predictor serving field.
func (r *Registry) ForField(field domain.Field) (Predictor, bool) {
	if r == nil {
		return Predictor{}, false
	}
	p, ok := r.byField[field]
	return p, ok
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("predictors file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s predictors: %w", name, err)
	}
	return reg, nil
}

func sanitizePredictor(p Predictor) Predictor {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Field = domain.Field(strings.ToLower(strings.TrimSpace(string(p.Field))))
	p.BaseURL = strings.TrimSpace(p.BaseURL)

	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	return p
}

func validatePredictor(p Predictor) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if !p.Field.Valid() {
		return fmt.Errorf("field %q is not one of age, gender, country for predictor %q", p.Field, p.ID)
	}
	if p.BaseURL == "" {
		return fmt.Errorf("base_url is required for predictor %q", p.ID)
	}
	return nil
}
