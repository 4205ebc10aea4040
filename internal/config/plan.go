package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
	"gopkg.in/yaml.v3"
)

// planFile is the YAML layout of a deployment plan
type planFile struct {
	Steps []planStep `yaml:"steps"`
}

type planStep struct {
	Name           string            `yaml:"name"`
	Artifact       string            `yaml:"artifact"`
	Strategy       domain.Strategy   `yaml:"strategy"`
	Implementation string            `yaml:"implementation"`
	Args           []domain.Argument `yaml:"args"`
	Libraries      map[string]string `yaml:"libraries"`
	Salt           string            `yaml:"salt"`
	SaltString     string            `yaml:"salt-string"`
	Pair           []int             `yaml:"pair"`
	Networks       []string          `yaml:"networks"`
}

// LoadPlan reads and validates the deployment plan at path
func LoadPlan(path string) ([]domain.DeploymentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a plan and checks every step for structural errors.
// Name references are not resolved here; that happens during the run.
func ParsePlan(data []byte) ([]domain.DeploymentSpec, error) {
	var plan planFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", domain.ErrInvalidPlan)
	}

	seen := make(map[string]bool, len(plan.Steps))
	specs := make([]domain.DeploymentSpec, 0, len(plan.Steps))
	for i, step := range plan.Steps {
		spec, err := step.toSpec()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %v", domain.ErrInvalidPlan, i+1, step.Name, err)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: duplicate step name %q", domain.ErrInvalidPlan, spec.Name)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

func (s planStep) toSpec() (domain.DeploymentSpec, error) {
	spec := domain.DeploymentSpec{
		Name:           s.Name,
		Artifact:       s.Artifact,
		Strategy:       s.Strategy,
		Implementation: s.Implementation,
		Args:           s.Args,
		Libraries:      s.Libraries,
		Salt:           s.Salt,
		SaltString:     s.SaltString,
		Networks:       s.Networks,
	}

	if spec.Name == "" {
		return spec, fmt.Errorf("missing name")
	}
	if spec.Strategy == "" {
		spec.Strategy = domain.StrategyCreate
	}

	switch spec.Strategy {
	case domain.StrategyCreate, domain.StrategyCreate2:
		if spec.Artifact == "" {
			spec.Artifact = spec.Name
		}
		if spec.Implementation != "" {
			return spec, fmt.Errorf("implementation is only valid for clone")
		}
	case domain.StrategyClone:
		if spec.Implementation == "" {
			return spec, fmt.Errorf("clone needs an implementation")
		}
		if len(spec.Libraries) > 0 {
			return spec, fmt.Errorf("a clone has no libraries to link")
		}
	default:
		return spec, fmt.Errorf("unknown strategy %q", spec.Strategy)
	}

	if !spec.Strategy.Deterministic() && (spec.Salt != "" || spec.SaltString != "" || len(s.Pair) > 0) {
		return spec, fmt.Errorf("salt options need a create2 or clone strategy")
	}
	if spec.Salt != "" && spec.SaltString != "" {
		return spec, fmt.Errorf("salt and salt-string are exclusive")
	}

	for i, arg := range spec.Args {
		if arg.Type == "" {
			return spec, fmt.Errorf("argument %d has no type", i)
		}
		if (arg.Value == "") == (arg.Ref == "") {
			return spec, fmt.Errorf("argument %d needs exactly one of value and ref", i)
		}
	}

	for lib, target := range spec.Libraries {
		if target == "" {
			return spec, fmt.Errorf("library %s has no target", lib)
		}
	}

	if len(s.Pair) > 0 {
		if len(s.Pair) != 2 || s.Pair[0] == s.Pair[1] {
			return spec, fmt.Errorf("pair must name two different argument indexes")
		}
		for _, idx := range s.Pair {
			if idx < 0 || idx >= len(spec.Args) {
				return spec, fmt.Errorf("pair index %d out of range", idx)
			}
			if spec.Args[idx].Type != "address" {
				return spec, fmt.Errorf("pair index %d is not an address argument", idx)
			}
		}
		spec.Pair = &[2]int{s.Pair[0], s.Pair[1]}
	}

	if spec.Strategy == domain.StrategyClone && common.IsHexAddress(spec.Implementation) &&
		common.HexToAddress(spec.Implementation) == (common.Address{}) {
		return spec, fmt.Errorf("implementation is the zero address")
	}

	return spec, nil
}
