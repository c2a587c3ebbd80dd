package classifier

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes where artifacts live and what the condition models expect.
//
//	chat:
//	  model: chatbot_model.json
//	  vectorizer: vectorizer.json
//	  labels: [diabetes, flu, migraine]
//	conditions:
//	  diabetes:
//	    model: gs://bucket/models/diabetes.json
//	    features: [glucose, bmi, age]
type Manifest struct {
	Chat       ChatManifest                 `yaml:"chat"`
	Conditions map[string]ConditionManifest `yaml:"conditions"`
}

type ChatManifest struct {
	Model      string   `yaml:"model"`
	Vectorizer string   `yaml:"vectorizer"`
	Labels     []string `yaml:"labels"`
}

type ConditionManifest struct {
	Model    string   `yaml:"model"`
	Features []string `yaml:"features"`
}

// ParseManifest decodes a YAML manifest. Condition keys are lowercased.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid model manifest: %w", err)
	}
	conds := make(map[string]ConditionManifest, len(m.Conditions))
	for name, c := range m.Conditions {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := conds[key]; dup {
			return nil, fmt.Errorf("condition %q listed twice", key)
		}
		for i, f := range c.Features {
			if strings.TrimSpace(f) == "" {
				return nil, fmt.Errorf("condition %q has an empty feature name at %d", key, i)
			}
		}
		conds[key] = c
	}
	m.Conditions = conds
	return &m, nil
}

// resolve places a relative artifact path under dir, using fallback when p is
// empty. Absolute paths and gs:// URLs are used as given.
func resolve(dir, p, fallback string) string {
	if p == "" {
		p = fallback
	}
	if strings.HasPrefix(p, gcsScheme) || filepath.IsAbs(p) || dir == "" {
		return p
	}
	if strings.HasPrefix(dir, gcsScheme) {
		return strings.TrimSuffix(dir, "/") + "/" + p
	}
	return filepath.Join(dir, p)
}
