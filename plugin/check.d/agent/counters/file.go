// SPDX-License-Identifier: GPL-3.0-or-later

package counters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/checkmk/checkengine/pkg/valuestore"
	"github.com/checkmk/checkengine/plugin/check.d/agent/filepersister"
)

// FileBackend keeps one JSON file per host.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the file of host.
func (b *FileBackend) Path(host string) string {
	return filepath.Join(b.dir, filepath.Base(host)+".json")
}

func (b *FileBackend) Load(_ context.Context, host string) (*valuestore.HostStore, error) {
	bs, err := os.ReadFile(b.Path(host))
	if errors.Is(err, os.ErrNotExist) {
		return valuestore.NewHostStore(), nil
	}
	if err != nil {
		return nil, err
	}

	hs, err := valuestore.DecodeHostStore(bs)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.Path(host), err)
	}
	return hs, nil
}

func (b *FileBackend) Save(_ context.Context, host string, hs *valuestore.HostStore) error {
	return filepersister.Save(b.Path(host), hs)
}

func (b *FileBackend) Close() error { return nil }
