package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// FormOptions is the catalog behind the session creation form.
type FormOptions struct {
	Roles          []string `yaml:"roles"`
	Levels         []string `yaml:"levels"`
	Difficulties   []string `yaml:"difficulties"`
	RequireCompany bool     `yaml:"require_company"`
	Defaults       struct {
		Role       string `yaml:"role"`
		JobTitle   string `yaml:"job_title"`
		Level      string `yaml:"level"`
		Difficulty string `yaml:"difficulty"`
		Stack      string `yaml:"stack"`
	} `yaml:"defaults"`
}

func DefaultFormOptions() *FormOptions {
	opts := &FormOptions{
		Roles:          []string{"backend", "data", "ml"},
		Levels:         []string{"junior", "mid", "senior"},
		Difficulties:   []string{"easy", "medium", "hard"},
		RequireCompany: true,
	}
	opts.Defaults.Role = "backend"
	opts.Defaults.JobTitle = "Backend Engineer"
	opts.Defaults.Level = "junior"
	opts.Defaults.Difficulty = "medium"
	return opts
}

// LoadFormOptions reads the YAML catalog at path on top of the defaults. An
// empty path returns the defaults.
func LoadFormOptions(path string) (*FormOptions, error) {
	opts := DefaultFormOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse form options: %w", err)
	}
	if err := validateFormOptions(opts); err != nil {
		return nil, fmt.Errorf("form options: %w", err)
	}
	return opts, nil
}

func validateFormOptions(opts *FormOptions) error {
	if len(opts.Roles) == 0 {
		return fmt.Errorf("roles must not be empty")
	}
	if len(opts.Levels) == 0 {
		return fmt.Errorf("levels must not be empty")
	}
	if len(opts.Difficulties) == 0 {
		return fmt.Errorf("difficulties must not be empty")
	}
	if d := opts.Defaults.Role; d != "" && !slices.Contains(opts.Roles, d) {
		return fmt.Errorf("default role %q is not in roles", d)
	}
	if d := opts.Defaults.Level; d != "" && !slices.Contains(opts.Levels, d) {
		return fmt.Errorf("default level %q is not in levels", d)
	}
	if d := opts.Defaults.Difficulty; d != "" && !slices.Contains(opts.Difficulties, d) {
		return fmt.Errorf("default difficulty %q is not in difficulties", d)
	}
	return nil
}
