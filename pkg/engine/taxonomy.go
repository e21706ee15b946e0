package engine

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type taxonomyEntry struct {
	Category Category `yaml:"category"`
	Patterns []string `yaml:"patterns"`
}

var taxonomy []taxonomyEntry

func init() {
	if err := yaml.Unmarshal(taxonomyYAML, &taxonomy); err != nil {
		panic("invalid embedded taxonomy table: " + err.Error())
	}
}

// Categorize maps a tool-specific rule onto the shared category set. The rule
// id is checked first, then the short rule name; anything unmatched lands in
// CategoryOther so downstream stages never special-case tool identity.
func Categorize(ruleID, ruleName string) Category {
	id := strings.ToLower(ruleID)
	name := strings.ToLower(ruleName)
	for _, entry := range taxonomy {
		for _, p := range entry.Patterns {
			if strings.Contains(id, p) || strings.Contains(name, p) {
				return entry.Category
			}
		}
	}
	return CategoryOther
}
