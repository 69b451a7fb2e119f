// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/checkmk/checkengine/plugin/check.d/agent/checker"
)

// snapshot keeps the results of the latest check cycle for the file persister.
type snapshot struct {
	mu        sync.Mutex
	updatedAt time.Time
	results   []*checker.HostResult
	updated   chan struct{}
}

func newSnapshot() *snapshot {
	return &snapshot{updated: make(chan struct{}, 1)}
}

func (s *snapshot) update(results []*checker.HostResult) {
	s.mu.Lock()
	s.results = results
	s.updatedAt = time.Now()
	s.mu.Unlock()

	select {
	case s.updated <- struct{}{}:
	default:
	}
}

func (s *snapshot) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return json.MarshalIndent(struct {
		UpdatedAt time.Time             `json:"updated_at"`
		Hosts     []*checker.HostResult `json:"hosts"`
	}{
		UpdatedAt: s.updatedAt,
		Hosts:     s.results,
	}, "", " ")
}

func (s *snapshot) Updated() <-chan struct{} {
	return s.updated
}
