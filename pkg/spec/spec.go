package spec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the project definition looked up by LoadProject.
const ProjectFile = "project.yaml"

// Load reads a project definition from a YAML file. The turbine register it
// references is not loaded.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project YAML: %w", err)
	}

	return &p, nil
}

// LoadProject loads a project from a directory. It reads project.yaml and,
// when historical.turbine_register is set, the register CSV relative to the
// directory.
func LoadProject(projectDir string) (*Project, error) {
	p, err := Load(filepath.Join(projectDir, ProjectFile))
	if err != nil {
		return nil, err
	}

	if p.Historical.TurbineRegister != "" {
		path := p.Historical.TurbineRegister
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		reg, err := LoadRegister(path)
		if err != nil {
			return nil, err
		}
		p.Register = reg
	}

	return p, nil
}
