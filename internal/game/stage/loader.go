package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlStageFile is the top-level YAML structure for stage files.
type yamlStageFile struct {
	Stage yamlStage `yaml:"stage"`
}

// yamlStage is the YAML representation of a stage.
type yamlStage struct {
	Name       string    `yaml:"name"`
	LeftSpawn  yamlSpawn `yaml:"left_spawn"`
	RightSpawn yamlSpawn `yaml:"right_spawn"`
	LeftColor  string    `yaml:"left_color"`
	RightColor string    `yaml:"right_color"`
}

// yamlSpawn is the YAML representation of a spawn point.
type yamlSpawn struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LoadFromFile reads and validates a single stage YAML file.
//
// Precondition: path must point to a valid YAML stage file.
// Postcondition: Returns a validated Stage or a non-nil error.
func LoadFromFile(path string) (Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stage{}, fmt.Errorf("reading stage file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a stage from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the stage schema.
// Postcondition: Returns a validated Stage or a non-nil error.
func LoadFromBytes(data []byte) (Stage, error) {
	var file yamlStageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Stage{}, fmt.Errorf("parsing stage YAML: %w", err)
	}

	s := Stage{
		Name:       file.Stage.Name,
		LeftSpawn:  Spawn{X: file.Stage.LeftSpawn.X, Y: file.Stage.LeftSpawn.Y},
		RightSpawn: Spawn{X: file.Stage.RightSpawn.X, Y: file.Stage.RightSpawn.Y},
		LeftColor:  file.Stage.LeftColor,
		RightColor: file.Stage.RightColor,
	}
	if err := s.Validate(); err != nil {
		return Stage{}, err
	}
	return s, nil
}

// LoadFromDir loads all YAML files in a directory as stages, keyed by name.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated stages or the first error encountered.
func LoadFromDir(dir string) (map[string]Stage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stage directory %s: %w", dir, err)
	}

	stages := make(map[string]Stage)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		s, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading stage from %s: %w", name, err)
		}
		if _, dup := stages[s.Name]; dup {
			return nil, fmt.Errorf("duplicate stage name %q in %s", s.Name, name)
		}
		stages[s.Name] = s
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("no stage files found in %s", dir)
	}

	return stages, nil
}
