// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"path/filepath"

	"github.com/checkmk/checkengine/plugin/check.d/agent/config"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// watchConfig requests a restart when the configuration file changes its content.
// Writes that keep the content hash (comments, formatting) and invalid files are ignored.
func (a *Agent) watchConfig(ctx context.Context, hash uint64) {
	path, err := homedir.Expand(a.ConfigPath)
	if err != nil {
		a.Warningf("config watcher: %v", err)
		return
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		a.Warningf("config watcher: %v", err)
		return
	}
	defer func() { _ = w.Close() }()

	// editors replace files by renaming, so the directory is watched
	if err := w.Add(filepath.Dir(path)); err != nil {
		a.Warningf("config watcher: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			a.Warningf("config watcher: %v", err)
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if a.configChanged(path, hash) {
				a.requestReload()
				return
			}
		}
	}
}

func (a *Agent) configChanged(path string, hash uint64) bool {
	cfg, err := config.Load(path)
	if err != nil {
		a.Warningf("ignoring config change: %v", err)
		return false
	}
	h, err := cfg.Hash()
	if err != nil {
		a.Warningf("ignoring config change: %v", err)
		return false
	}
	if h == hash {
		a.Debug("config file written without changes")
		return false
	}
	return true
}

func (a *Agent) requestReload() {
	select {
	case a.reloadCh <- struct{}{}:
	default:
	}
}
