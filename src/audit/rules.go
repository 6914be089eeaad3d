package audit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule kinds. Every rule is a tagged variant: the kind picks the
// evaluation strategy, the remaining fields parameterize it.
const (
	KindStatusRequiresField        = "status_requires_field"
	KindCrossBureauNumericMismatch = "cross_bureau_numeric_mismatch"
	KindCrossBureauValueMismatch   = "cross_bureau_value_mismatch"
	KindNonzeroFieldForStatus      = "nonzero_field_for_status"
	KindObsoleteDate               = "obsolete_date"
)

var knownKinds = map[string]bool{
	KindStatusRequiresField:        true,
	KindCrossBureauNumericMismatch: true,
	KindCrossBureauValueMismatch:   true,
	KindNonzeroFieldForStatus:      true,
	KindObsoleteDate:               true,
}

// Rule is one named audit check loaded from the rules definitions file.
// Rules evaluate in declaration order.
type Rule struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	Kind     string   `yaml:"kind"`
	Field    string   `yaml:"field"`
	Statuses []string `yaml:"statuses"`
	Years    int      `yaml:"years"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRulesPath is the bundled rule set, relative to the working
// directory unless overridden through configuration.
const DefaultRulesPath = "config/rules.yaml"

// ErrRulesUnavailable wraps every rules-loading failure. A missing or
// malformed rule set is fatal for the engine, never a per-run skip.
var ErrRulesUnavailable = errors.New("audit rules unavailable")

// CandidatePaths builds the ordered list of rule-file locations: the
// explicit override first, then the bundled default, then any extra
// fallbacks the caller wants scanned.
func CandidatePaths(override string, fallbacks ...string) []string {
	var paths []string
	if override != "" {
		paths = append(paths, override)
	}
	paths = append(paths, DefaultRulesPath)
	paths = append(paths, fallbacks...)
	return paths
}

// LoadRules reads the first existing candidate path and validates the
// rule set. The error for a fully failed resolution names every path
// tried so a misconfigured deployment is diagnosable from the log line.
func LoadRules(candidates ...string) ([]Rule, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate paths given", ErrRulesUnavailable)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%w: reading %s: %v", ErrRulesUnavailable, path, err)
		}

		var file rulesFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: malformed rules file %s: %v", ErrRulesUnavailable, path, err)
		}
		if err := validateRules(file.Rules); err != nil {
			return nil, fmt.Errorf("%w: invalid rules file %s: %v", ErrRulesUnavailable, path, err)
		}
		return file.Rules, nil
	}

	return nil, fmt.Errorf("%w: no rules file found, tried: %s",
		ErrRulesUnavailable, strings.Join(candidates, ", "))
}

func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.New("no rules defined")
	}
	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d has no id", i)
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
		if !knownKinds[rule.Kind] {
			return fmt.Errorf("rule %q has unknown kind %q", rule.ID, rule.Kind)
		}
		if rule.Field == "" {
			return fmt.Errorf("rule %q has no field", rule.ID)
		}
	}
	return nil
}
