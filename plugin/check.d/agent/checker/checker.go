// SPDX-License-Identifier: GPL-3.0-or-later

// Package checker runs discovery and check plugins against the agent output of hosts.
package checker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/checkmk/checkengine/logger"
	"github.com/checkmk/checkengine/plugin/check.d/agent/autochecks"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/agent/config"
	"github.com/checkmk/checkengine/plugin/check.d/agent/counters"
	"github.com/checkmk/checkengine/plugin/check.d/agent/filelock"
)

var ErrUnknownHost = errors.New("unknown host")

type Config struct {
	Registry   *checkapi.Registry
	Config     *config.Config
	Autochecks *autochecks.Store
	Counters   counters.Backend
	// Locker is optional. Without it concurrent runs of the same host are not prevented.
	Locker *filelock.Locker
	// Now is optional, defaults to time.Now.
	Now func() time.Time
}

// Checker is the execution harness: it feeds sections to plugins, merges parameters,
// persists discovered services and value stores, and isolates plugin failures.
type Checker struct {
	*logger.Logger

	reg        *checkapi.Registry
	cfg        *config.Config
	autochecks *autochecks.Store
	counters   counters.Backend
	locker     *filelock.Locker
	now        func() time.Time
}

func New(cfg Config) *Checker {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Checker{
		Logger:     logger.New().With(slog.String("component", "checker")),
		reg:        cfg.Registry,
		cfg:        cfg.Config,
		autochecks: cfg.Autochecks,
		counters:   cfg.Counters,
		locker:     cfg.Locker,
		now:        now,
	}
}

func (c *Checker) host(name string) (config.Host, error) {
	h, ok := c.cfg.Host(name)
	if !ok {
		return config.Host{}, fmt.Errorf("%w '%s'", ErrUnknownHost, name)
	}
	return h, nil
}

func (c *Checker) lock(host string) (func(), error) {
	if c.locker == nil {
		return func() {}, nil
	}
	if err := c.locker.Lock(host); err != nil {
		return nil, err
	}
	return func() { c.locker.Unlock(host) }, nil
}
