// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/checkmk/checkengine/logger"
	"github.com/checkmk/checkengine/pkg/buildinfo"
	"github.com/checkmk/checkengine/plugin/check.d/agent"
	"github.com/checkmk/checkengine/plugin/check.d/cli"
	"github.com/checkmk/checkengine/plugin/check.d/plugins"
)

func init() {
	// a leading ':' in TZ is not understood by the time package
	if v := os.Getenv("TZ"); strings.HasPrefix(v, ":") {
		_ = os.Unsetenv("TZ")
	}
}

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, args ...interface{}) {}))

	name := filepath.Base(os.Args[0])
	opts := parseCLI(name)

	if opts.Version {
		fmt.Printf("%s, version: %s\n", name, buildinfo.Version)
		return
	}

	if lvl := os.Getenv("CHECKENGINE_LOG_LEVEL"); lvl != "" {
		logger.Level.SetByName(lvl)
	}
	if opts.Debug {
		logger.Level.Set(slog.LevelDebug)
	}

	reg := plugins.NewRegistry()
	if err := reg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := agent.New(agent.Config{
		ConfigPath: opts.Config,
		Registry:   reg,
		Mode:       opts.Mode,
		Hosts:      opts.Hosts,
		Format:     opts.Format,
		Out:        os.Stdout,
	})

	a.Infof("engine: name=%s, %s", name, buildinfo.Info())
	if u, err := user.Current(); err == nil {
		a.Debugf("current user: name=%s, uid=%s", u.Username, u.Uid)
	}
	a.Debugf("config: %s, mode: %s", opts.Config, opts.Mode)

	if err := a.Run(); err != nil {
		a.Error(err)
		os.Exit(1)
	}
}

func parseCLI(name string) *cli.Option {
	opt, err := cli.Parse(name, os.Args[1:])
	if err != nil {
		if cli.IsHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	return opt
}
