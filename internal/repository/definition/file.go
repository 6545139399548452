package definition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/oshokin/wake-scheduler/internal/config"
	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// FileRepository persists definitions to a single JSON file on disk, keyed
// by definition id. It is the default backend for single-device setups.
type FileRepository struct {
	// path is the filesystem location of the definitions file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the
// provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// List returns every stored definition sorted by id.
func (r *FileRepository) List(_ context.Context) ([]*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, err := r.readAll()
	if err != nil {
		return nil, err
	}

	definitions := make([]*alarm.Definition, 0, len(byID))
	for _, def := range byID {
		definitions = append(definitions, def)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].ID < definitions[j].ID
	})

	return definitions, nil
}

// Get returns one definition or ErrNotFound.
func (r *FileRepository) Get(_ context.Context, id string) (*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, err := r.readAll()
	if err != nil {
		return nil, err
	}

	def, ok := byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	return def, nil
}

// Upsert stores or replaces a definition.
func (r *FileRepository) Upsert(_ context.Context, def *alarm.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, err := r.readAll()
	if err != nil {
		return err
	}

	byID[def.ID] = def.Clone()

	return r.writeAll(byID)
}

// Delete removes a definition. Deleting an absent id is ErrNotFound.
func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, err := r.readAll()
	if err != nil {
		return err
	}

	if _, ok := byID[id]; !ok {
		return ErrNotFound
	}

	delete(byID, id)

	return r.writeAll(byID)
}

// readAll loads the whole file. A missing file is an empty store.
func (r *FileRepository) readAll() (map[string]*alarm.Definition, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*alarm.Definition), nil
		}

		return nil, fmt.Errorf("read definitions file: %w", err)
	}

	byID := make(map[string]*alarm.Definition)
	if err := json.Unmarshal(contents, &byID); err != nil {
		return nil, fmt.Errorf("decode definitions file: %w", err)
	}

	return byID, nil
}

// writeAll persists the whole store.
func (r *FileRepository) writeAll(byID map[string]*alarm.Definition) error {
	data, err := json.MarshalIndent(byID, "", "  ")
	if err != nil {
		return fmt.Errorf("encode definitions: %w", err)
	}

	if err := os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write definitions file: %w", err)
	}

	return nil
}
