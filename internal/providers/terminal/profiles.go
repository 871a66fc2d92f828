package terminal

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Profile is a named shell configuration sessions can be created from.
type Profile struct {
	Name       string            `yaml:"name" json:"name"`
	Command    string            `yaml:"command" json:"command"`
	Args       []string          `yaml:"args" json:"args,omitempty"`
	WorkingDir string            `yaml:"working_dir" json:"working_dir,omitempty"`
	Env        map[string]string `yaml:"env" json:"env,omitempty"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// ParseProfiles decodes a YAML document of the form
//
//	profiles:
//	  - name: bash
//	    command: /bin/bash
//	    args: ["--norc"]
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	profiles := make(map[string]Profile, len(file.Profiles))
	for i, p := range file.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile %d: name is required", i)
		}
		if p.Command == "" {
			return nil, fmt.Errorf("profile %q: command is required", p.Name)
		}
		if _, dup := profiles[p.Name]; dup {
			return nil, fmt.Errorf("profile %q defined twice", p.Name)
		}
		profiles[p.Name] = p
	}
	return profiles, nil
}

// LoadProfiles reads profiles from a YAML file. An empty path yields none.
func LoadProfiles(path string) (map[string]Profile, error) {
	if path == "" {
		return map[string]Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(data)
}
