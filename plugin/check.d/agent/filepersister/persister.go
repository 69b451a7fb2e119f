// SPDX-License-Identifier: GPL-3.0-or-later

package filepersister

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/checkmk/checkengine/logger"
)

// Data is anything that can be serialized and reports its modifications.
type Data interface {
	Bytes() ([]byte, error)
	Updated() <-chan struct{}
}

// Save writes data to path once.
func Save(path string, data interface{ Bytes() ([]byte, error) }) error {
	if path == "" {
		return nil
	}
	return New(path).flush(data)
}

func New(path string) *Persister {
	return &Persister{
		Logger: logger.New().With(
			slog.String("component", "file persister"),
			slog.String("file", path),
		),
		FlushEvery: time.Minute,
		filepath:   path,
	}
}

// Persister writes Data to a file when it was updated, at most once per FlushEvery.
type Persister struct {
	*logger.Logger

	FlushEvery time.Duration

	filepath string
}

// Run flushes pending updates periodically until ctx is done, then flushes a last time.
func (p *Persister) Run(ctx context.Context, data Data) {
	p.Debug("instance is started")
	defer func() { p.Debug("instance is stopped") }()

	tk := time.NewTicker(p.FlushEvery)
	defer tk.Stop()

	var dirty bool
	for {
		select {
		case <-ctx.Done():
			if err := p.flush(data); err != nil {
				p.Warning(err)
			}
			return
		case <-data.Updated():
			dirty = true
		case <-tk.C:
			if !dirty {
				continue
			}
			if err := p.flush(data); err != nil {
				p.Warning(err)
				continue
			}
			dirty = false
		}
	}
}

// flush replaces the file atomically so readers never see a partial write.
func (p *Persister) flush(data interface{ Bytes() ([]byte, error) }) error {
	bs, err := data.Bytes()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", p.filepath, err)
	}

	dir := filepath.Dir(p.filepath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.filepath)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(bs); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p.filepath); err != nil {
		return err
	}

	p.Debug("file persisted successfully")
	return nil
}
