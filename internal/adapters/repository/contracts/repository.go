package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// Repository indexes compiled artifacts under a directory. Hardhat and
// Foundry output layouts are both understood.
type Repository struct {
	root  string
	log   *slog.Logger
	mu    sync.RWMutex
	byKey map[string]*domain.Artifact   // key: "source:Name"
	named map[string][]*domain.Artifact // key: contract name
	// indexed is set once the directory has been walked
	indexed bool
}

// NewRepository creates a repository over cfg's artifacts directory
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	root := cfg.Deploy.ArtifactsDir
	if root != "" && !filepath.IsAbs(root) {
		root = filepath.Join(cfg.ProjectRoot, root)
	}
	return NewRepositoryAt(root, log)
}

// NewRepositoryAt creates a repository rooted at dir
func NewRepositoryAt(dir string, log *slog.Logger) *Repository {
	return &Repository{
		root:  dir,
		log:   log.With("component", "artifacts"),
		byKey: make(map[string]*domain.Artifact),
		named: make(map[string][]*domain.Artifact),
	}
}

// rawArtifact covers both layouts. Hardhat stores bytecode as a string with
// top-level linkReferences, Foundry nests them in a bytecode object.
type rawArtifact struct {
	ContractName   string                `json:"contractName"`
	SourceName     string                `json:"sourceName"`
	ABI            json.RawMessage       `json:"abi"`
	Bytecode       json.RawMessage       `json:"bytecode"`
	LinkReferences domain.LinkReferences `json:"linkReferences"`
	Metadata       struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	} `json:"metadata"`
}

type bytecodeObject struct {
	Object         string                `json:"object"`
	LinkReferences domain.LinkReferences `json:"linkReferences"`
}

// Index walks the artifacts directory once
func (r *Repository) Index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}
	if r.root == "" {
		return fmt.Errorf("no artifacts directory configured")
	}
	if _, err := os.Stat(r.root); err != nil {
		return fmt.Errorf("artifacts directory %s: %w", r.root, err)
	}

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		return r.load(path)
	})
	if err != nil {
		return err
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "dir", r.root, "count", len(r.byKey))
	return nil
}

func (r *Repository) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Bytecode) == 0 {
		// Not an artifact
		return nil
	}

	artifact := &domain.Artifact{
		Name:       raw.ContractName,
		SourceName: raw.SourceName,
		Path:       path,
		ABI:        raw.ABI,
	}

	var hardhat string
	if err := json.Unmarshal(raw.Bytecode, &hardhat); err == nil {
		artifact.Bytecode = hardhat
		artifact.LinkReferences = raw.LinkReferences
	} else {
		var foundry bytecodeObject
		if err := json.Unmarshal(raw.Bytecode, &foundry); err != nil {
			return nil
		}
		artifact.Bytecode = foundry.Object
		artifact.LinkReferences = foundry.LinkReferences
		for source, name := range raw.Metadata.Settings.CompilationTarget {
			artifact.SourceName, artifact.Name = source, name
		}
	}

	if artifact.Name == "" {
		artifact.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if !strings.HasPrefix(artifact.Bytecode, "0x") {
		artifact.Bytecode = "0x" + artifact.Bytecode
	}

	key := artifact.FullyQualifiedName()
	if _, exists := r.byKey[key]; exists {
		return nil
	}
	r.byKey[key] = artifact
	r.named[artifact.Name] = append(r.named[artifact.Name], artifact)
	return nil
}

// GetArtifact returns the artifact for a contract name or "source:Name"
func (r *Repository) GetArtifact(ctx context.Context, name string) (*domain.Artifact, error) {
	if err := r.Index(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if artifact, ok := r.byKey[name]; ok {
		return artifact, nil
	}

	matches := r.named[name]
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if suggestions := fuzzy.Find(name, lo.Keys(r.named)); len(suggestions) > 0 {
			return nil, fmt.Errorf("artifact %s (did you mean %s?): %w", name, suggestions[0].Str, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
	default:
		keys := lo.Map(matches, func(a *domain.Artifact, _ int) string { return a.FullyQualifiedName() })
		sort.Strings(keys)
		return nil, fmt.Errorf("artifact name %s is ambiguous, use one of: %s", name, strings.Join(keys, ", "))
	}
}

// Names returns every indexed contract name
func (r *Repository) Names(ctx context.Context) []string {
	if err := r.Index(); err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Keys(r.named)
	sort.Strings(names)
	return names
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
