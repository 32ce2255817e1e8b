// Package prompts loads the prompt templates sent to the text generator.
// Defaults are embedded; a YAML file can override any of them.
package prompts

import (
	_ "embed"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultsYAML []byte

// Set holds one template per generating stage. Templates use {name}
// placeholders.
type Set struct {
	AlertSummary string `yaml:"alert_summary"`
	Resolution   string `yaml:"resolution"`
	Governance   string `yaml:"governance"`
}

// Defaults returns the embedded templates.
func Defaults() Set {
	var s Set
	if err := yaml.Unmarshal(defaultsYAML, &s); err != nil {
		panic(errors.Wrap(err, "embedded prompts.yaml"))
	}
	return s
}

// Load reads path and fills any template it leaves empty from the defaults.
// An empty path returns the defaults.
func Load(path string) (Set, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, errors.Wrapf(err, "read prompts file %s", path)
	}
	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Set{}, errors.Wrapf(err, "parse prompts file %s", path)
	}

	if override.AlertSummary != "" {
		s.AlertSummary = override.AlertSummary
	}
	if override.Resolution != "" {
		s.Resolution = override.Resolution
	}
	if override.Governance != "" {
		s.Governance = override.Governance
	}
	return s, nil
}

// Render substitutes {key} placeholders. Unknown placeholders are left as-is.
func Render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
