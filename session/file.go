package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileSchemaVersion = "1"
	lockRetryDelay    = 20 * time.Millisecond
)

type fileContents struct {
	Version   string            `json:"version"`
	Values    map[string]string `json:"values"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// FileMirror stores values in a JSON file guarded by an advisory lock, so
// several processes on one machine can share a session.
type FileMirror struct {
	path string
	lock *flock.Flock
}

// NewFileMirror returns a mirror backed by path. The parent directory is
// created with owner-only permissions.
func NewFileMirror(path string) (*FileMirror, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	return &FileMirror{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (m *FileMirror) Get(ctx context.Context, key string) (string, bool, error) {
	locked, err := m.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return "", false, fmt.Errorf("%w: lock: %v", ErrMirrorUnavailable, err)
	}
	defer m.lock.Unlock()

	c, err := m.read()
	if err != nil {
		return "", false, err
	}
	v, ok := c.Values[key]
	return v, ok, nil
}

func (m *FileMirror) Set(ctx context.Context, key, value string) error {
	return m.Apply(ctx, map[string]string{key: value}, nil)
}

func (m *FileMirror) Delete(ctx context.Context, keys ...string) error {
	return m.Apply(ctx, nil, keys)
}

// Apply performs a locked read-modify-write of the whole file.
func (m *FileMirror) Apply(ctx context.Context, set map[string]string, del []string) error {
	locked, err := m.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("%w: lock: %v", ErrMirrorUnavailable, err)
	}
	defer m.lock.Unlock()

	c, err := m.read()
	if err != nil {
		return err
	}
	for k, v := range set {
		c.Values[k] = v
	}
	for _, k := range del {
		delete(c.Values, k)
	}
	c.UpdatedAt = time.Now().UTC()
	return m.write(c)
}

func (m *FileMirror) read() (*fileContents, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileContents{Version: fileSchemaVersion, Values: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}

	var c fileContents
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: corrupt file: %v", ErrMirrorUnavailable, err)
	}
	if c.Values == nil {
		c.Values = map[string]string{}
	}
	return &c, nil
}

func (m *FileMirror) write(c *fileContents) error {
	c.Version = fileSchemaVersion
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	return nil
}
