// SPDX-License-Identifier: GPL-3.0-or-later

// Package counters persists the value store of every host between check runs.
package counters

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/checkmk/checkengine/pkg/valuestore"
)

// Backend loads and saves the value store of one host.
// Load returns an empty store if nothing was saved yet.
type Backend interface {
	Load(ctx context.Context, host string) (*valuestore.HostStore, error)
	Save(ctx context.Context, host string, hs *valuestore.HostStore) error
	io.Closer
}

type Config struct {
	// Type is one of "file", "redis", "mysql", "postgres". Empty means "file".
	Type string `yaml:"type" json:"type"`
	// Dir is the directory of the file backend.
	Dir string `yaml:"dir" json:"dir"`
	// Address is the redis address (host:port).
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	// KeyPrefix is prepended to redis keys.
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	// DSN is the database connection string of the SQL backends.
	DSN   string `yaml:"dsn" json:"dsn"`
	Table string `yaml:"table" json:"table"`
}

var ErrUnknownBackend = errors.New("unknown value store backend")

// New creates the backend described by cfg. defaultDir is used by the file backend if cfg.Dir is empty.
func New(ctx context.Context, cfg Config, defaultDir string) (Backend, error) {
	switch cfg.Type {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			dir = defaultDir
		}
		return NewFileBackend(dir), nil
	case "redis":
		return NewRedisBackend(ctx, cfg)
	case "mysql", "postgres":
		return OpenSQLBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownBackend, cfg.Type)
	}
}
