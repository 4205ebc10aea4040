package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// DefaultFactory is the deterministic deployment proxy present on most EVM chains
var DefaultFactory = common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c")

const (
	defaultPlan        = "deploy.yaml"
	defaultArtifacts   = "artifacts"
	defaultBookDir     = "deployments"
	defaultSQLitePath  = ".sling/addresses.db"
	defaultDataDirName = ".sling"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, defaultDataDirName),
		RunID:          uuid.NewString(),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		DryRun:         v.GetBool("dry_run"),
		ExitAfterHeal:  v.GetBool("exit_after_heal"),
		Yes:            v.GetBool("yes"),
		PlanFile:       v.GetString("plan"),
		MetricsFile:    v.GetString("metrics_file"),
	}

	configPath := v.GetString("config")
	if configPath != "" && !filepath.IsAbs(configPath) {
		configPath = filepath.Join(projectRoot, configPath)
	}
	sling, err := LoadSlingConfig(projectRoot, configPath)
	if err != nil {
		return nil, err
	}
	cfg.Sling = sling

	cfg.AddressBook = sling.AddressBook
	if backend := v.GetString("addressbook"); backend != "" {
		cfg.AddressBook.Backend = backend
	}
	if cfg.AddressBook.Backend == "" {
		cfg.AddressBook.Backend = "file"
	}
	if cfg.AddressBook.Dir == "" {
		cfg.AddressBook.Dir = defaultBookDir
	}
	if cfg.AddressBook.Path == "" {
		cfg.AddressBook.Path = defaultSQLitePath
	}
	cfg.AddressBook.Dir = inProject(projectRoot, cfg.AddressBook.Dir)
	cfg.AddressBook.Path = inProject(projectRoot, cfg.AddressBook.Path)

	cfg.Deploy = config.Deploy{
		PlanFile:     firstNonEmpty(cfg.PlanFile, sling.Deploy.Plan, defaultPlan),
		ArtifactsDir: inProject(projectRoot, firstNonEmpty(sling.Deploy.Artifacts, defaultArtifacts)),
		Factory:      DefaultFactory,
		HealGasBump:  sling.Deploy.HealGasBump,
	}
	cfg.Deploy.PlanFile = inProject(projectRoot, cfg.Deploy.PlanFile)
	if sling.Deploy.Factory != "" {
		if !common.IsHexAddress(sling.Deploy.Factory) {
			return nil, fmt.Errorf("invalid deploy.factory %q", sling.Deploy.Factory)
		}
		cfg.Deploy.Factory = common.HexToAddress(sling.Deploy.Factory)
	}

	if networkName := v.GetString("network"); networkName != "" {
		network, err := NewNetworkResolver(sling).Resolve(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory to find sling.toml.
// Without one the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, SlingFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance bound to cmd's flags
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("SLING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "10m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
			panic(err)
		}
	})

	return v
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg.Sling)
}

func inProject(projectRoot, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
