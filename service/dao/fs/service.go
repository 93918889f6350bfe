// Package fs provides a JSON-on-storage implementation of dao.Store backed
// by the afs abstraction, so artifacts and sanctions can be kept on any
// supported scheme (file, mem, s3, gs...).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/veriflow/lifecycle/service/dao"
)

// Service persists entities of type T as individual JSON documents under a
// base URL. Updates are serialised through an in-process mutex; multi-node
// deployments need a shared store with real row locking instead.
type Service[T any] struct {
	baseURL     string
	fs          afs.Service
	keySelector func(*T) string
	mu          sync.RWMutex
}

// New creates a storage-backed DAO rooted at baseURL.
func New[T any](baseURL string, keySelector func(*T) string) *Service[T] {
	return &Service[T]{
		baseURL:     baseURL,
		fs:          afs.New(),
		keySelector: keySelector,
	}
}

func (s *Service[T]) entityURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// Save persists an entity as JSON.
func (s *Service[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	id := s.keySelector(v)
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, id, v)
}

func (s *Service[T]) save(ctx context.Context, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("fs: failed to marshal %s: %w", id, err)
	}
	URL := s.entityURL(id)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("fs: failed to save %s: %w", URL, err)
	}
	return nil
}

// Load retrieves an entity by id, or nil when absent.
func (s *Service[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, id)
}

func (s *Service[T]) load(ctx context.Context, id string) (*T, error) {
	URL := s.entityURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("fs: failed to check %s: %w", URL, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("fs: failed to read %s: %w", URL, err)
	}
	var v T
	if err = json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("fs: failed to unmarshal %s: %w", URL, err)
	}
	return &v, nil
}

// Delete removes an entity; deleting an absent entity is a no-op.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.entityURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil || !exists {
		return err
	}
	return s.fs.Delete(ctx, URL)
}

// List returns all stored entities.
func (s *Service[T]) List(ctx context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fs: failed to list %s: %w", s.baseURL, err)
	}
	var out []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(path.Base(object.Name()), ".json")
		v, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// Update performs a load-mutate-save cycle under the service mutex.
func (s *Service[T]) Update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, dao.ErrNotFound
	}
	if err = mutate(v); err != nil {
		return nil, err
	}
	if err = s.save(ctx, id, v); err != nil {
		return nil, err
	}
	return v, nil
}

var _ dao.Store[string, struct{}] = (*Service[struct{}])(nil)
