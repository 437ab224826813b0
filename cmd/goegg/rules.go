package main

import (
	"fmt"
	"os"

	"github.com/borzacchiello/goegg"
	"gopkg.in/yaml.v3"
)

type ruleEntry struct {
	Name string `yaml:"name"`
	Lhs  string `yaml:"lhs"`
	Rhs  string `yaml:"rhs"`
}

// ruleFile is the yaml layout of --rules. constant_folding appends the
// programmatic folding rules after the listed ones.
type ruleFile struct {
	Rules           []ruleEntry `yaml:"rules"`
	ConstantFolding bool        `yaml:"constant_folding"`
}

func ParseRules(data []byte) ([]*goegg.Rewrite, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Rules) == 0 && !f.ConstantFolding {
		return nil, fmt.Errorf("no rules")
	}

	seen := make(map[string]bool)
	res := make([]*goegg.Rewrite, 0, len(f.Rules))
	for i, r := range f.Rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s => %s", r.Lhs, r.Rhs)
		}
		// the backoff scheduler keys its statistics by name
		if seen[name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i, name)
		}
		seen[name] = true

		rw, err := goegg.ParseRewrite(name, r.Lhs, r.Rhs)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		res = append(res, rw)
	}
	if f.ConstantFolding {
		res = append(res, goegg.ConstantFolding()...)
	}
	return res, nil
}

// LoadRules reads a rule file, or returns the boolean rule set when path is
// empty.
func LoadRules(path string) ([]*goegg.Rewrite, error) {
	if path == "" {
		return goegg.BooleanRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
