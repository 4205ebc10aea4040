package addressbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// FileStore keeps one addresses.<network>.json per network in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the book file of network
func (s *FileStore) Path(network string) string {
	return filepath.Join(s.dir, fmt.Sprintf("addresses.%s.json", network))
}

// Open reads the book of network. A missing file is an empty book.
func (s *FileStore) Open(ctx context.Context, network string) (usecase.AddressBook, error) {
	entries, err := s.load(network)
	if err != nil {
		return nil, err
	}
	return newBook(network, entries, s), nil
}

func (s *FileStore) load(network string) (map[string]common.Address, error) {
	path := s.Path(network)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	entries := make(map[string]common.Address, len(raw))
	for name, hex := range raw {
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("invalid address %q for %s in %s", hex, name, path)
		}
		entries[name] = common.HexToAddress(hex)
	}
	return entries, nil
}

func (s *FileStore) put(ctx context.Context, network, name string, address common.Address, snapshot map[string]common.Address) error {
	return s.save(network, snapshot)
}

func (s *FileStore) remove(ctx context.Context, network, name string, snapshot map[string]common.Address) error {
	return s.save(network, snapshot)
}

// save rewrites the whole book through a temp file and rename
func (s *FileStore) save(network string, snapshot map[string]common.Address) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	raw := make(map[string]string, len(snapshot))
	for name, addr := range snapshot {
		raw[name] = addr.Hex()
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".addresses.%s.*.tmp", network))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.Path(network))
}
