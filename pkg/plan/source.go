package plan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source loads plan definitions.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

// inMemSource implements Source over a fixed list of plans.
type inMemSource struct {
	mu    sync.RWMutex
	plans []Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the given plans.
func NewInMemSource(plans ...Plan) Source {
	cp := make([]Plan, 0, len(plans))
	for _, p := range plans {
		cp = append(cp, p.clone())
	}
	return &inMemSource{plans: cp}
}

// Load returns a copy of all plans.
func (s *inMemSource) Load(_ context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		cp = append(cp, p.clone())
	}
	return cp, nil
}

// catalogFile is the on-disk layout read by FileSource.
type catalogFile struct {
	Version int    `yaml:"version"`
	Plans   []Plan `yaml:"plans"`
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source reading a YAML or JSON catalog file.
// The file is read on every Load call.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

// Load reads and decodes the catalog file.
func (s *fileSource) Load(ctx context.Context) ([]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	return decodeCatalog(data)
}

type fsSource struct {
	fsys fs.FS
	name string
}

// NewFSSource returns a Source reading the catalog file name from fsys,
// typically an embed.FS shipped with the binary.
func NewFSSource(fsys fs.FS, name string) Source {
	return &fsSource{fsys: fsys, name: name}
}

func (s *fsSource) Load(ctx context.Context) ([]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	return decodeCatalog(data)
}

func decodeCatalog(data []byte) ([]Plan, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("decode catalog: %w", err))
	}

	for i := range f.Plans {
		if f.Plans[i].Version == 0 {
			f.Plans[i].Version = f.Version
		}
	}
	return f.Plans, nil
}
