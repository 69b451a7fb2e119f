// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/checkmk/checkengine/logger"
	"github.com/checkmk/checkengine/plugin/check.d/agent/autochecks"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checker"
	"github.com/checkmk/checkengine/plugin/check.d/agent/config"
	"github.com/checkmk/checkengine/plugin/check.d/agent/counters"
	"github.com/checkmk/checkengine/plugin/check.d/agent/filelock"
	"github.com/checkmk/checkengine/plugin/check.d/agent/filepersister"
)

const (
	ModeDiscover = "discover"
	ModeCheck    = "check"
	ModeRun      = "run"
	ModeSchema   = "schema"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var ErrUnknownMode = errors.New("unknown mode")

// Config is an Agent configuration.
type Config struct {
	ConfigPath string
	Registry   *checkapi.Registry
	Mode       string
	// Hosts limits the run to these hosts. Empty means all configured hosts.
	Hosts  []string
	Format string
	Out    io.Writer
}

// Agent runs discovery and checks, once or periodically.
type Agent struct {
	*logger.Logger

	ConfigPath string
	Registry   *checkapi.Registry
	Mode       string
	Hosts      []string
	Format     string
	Out        io.Writer

	// StopTimeout bounds the wait for a running instance on restart and exit.
	StopTimeout time.Duration

	reloadCh chan struct{}
}

// New creates a new Agent.
func New(cfg Config) *Agent {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	format := cfg.Format
	if format == "" {
		format = FormatText
	}
	return &Agent{
		Logger: logger.New().With(
			slog.String("component", "agent"),
		),
		ConfigPath:  cfg.ConfigPath,
		Registry:    cfg.Registry,
		Mode:        cfg.Mode,
		Hosts:       cfg.Hosts,
		Format:      format,
		Out:         out,
		StopTimeout: time.Second * 10,
		reloadCh:    make(chan struct{}, 1),
	}
}

// Run executes the configured mode. The one-shot modes return when done,
// the run mode serves until SIGINT or SIGTERM.
func (a *Agent) Run() error {
	switch a.Mode {
	case ModeDiscover, ModeCheck, ModeSchema:
		return a.RunOnce(context.Background())
	case ModeRun:
		serve(a)
		return nil
	default:
		return fmt.Errorf("%w '%s'", ErrUnknownMode, a.Mode)
	}
}

func serve(a *Agent) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	var wg sync.WaitGroup

	for {
		ctx, cancel := context.WithCancel(context.Background())

		wg.Add(1)
		go func() { defer wg.Done(); a.run(ctx) }()

		var exit bool
		select {
		case sig := <-ch:
			switch sig {
			case syscall.SIGHUP:
				a.Infof("received %s signal (%d). Restarting running instance", sig, sig)
			default:
				a.Infof("received %s signal (%d). Terminating...", sig, sig)
				exit = true
			}
		case <-a.reloadCh:
			a.Info("configuration changed. Restarting running instance")
		}

		cancel()

		if !a.waitStopped(&wg) {
			a.Errorf("stopping all goroutines timed out after %s. Exiting...", a.StopTimeout)
			return
		}
		if exit {
			return
		}

		time.Sleep(time.Second)
	}
}

func (a *Agent) waitStopped(wg *sync.WaitGroup) bool {
	t := time.NewTimer(a.StopTimeout)
	defer t.Stop()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-t.C:
		return false
	case <-done:
		return true
	}
}

// instance is everything one configuration generation needs.
type instance struct {
	cfg     *config.Config
	checker *checker.Checker
	backend counters.Backend
	locker  *filelock.Locker
	store   *autochecks.Store
}

func (a *Agent) setup(ctx context.Context) (*instance, error) {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}

	backend, err := counters.New(ctx, cfg.ValueStore, cfg.CountersDir())
	if err != nil {
		return nil, fmt.Errorf("value store: %w", err)
	}

	inst := &instance{
		cfg:     cfg,
		backend: backend,
		locker:  filelock.New(cfg.LockDir()),
		store:   autochecks.NewStore(cfg.AutochecksDir()),
	}
	inst.checker = checker.New(checker.Config{
		Registry:   a.Registry,
		Config:     cfg,
		Autochecks: inst.store,
		Counters:   backend,
		Locker:     inst.locker,
	})

	return inst, nil
}

func (inst *instance) close() {
	inst.locker.UnlockAll()
	_ = inst.backend.Close()
}

func (a *Agent) hosts(cfg *config.Config) []string {
	if len(a.Hosts) > 0 {
		return a.Hosts
	}
	return cfg.HostNames()
}

// RunOnce runs the one-shot mode and writes the results to Out.
// It returns an error if the setup failed or any host failed.
func (a *Agent) RunOnce(ctx context.Context) error {
	if a.Mode == ModeSchema {
		bs, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.Out, string(bs))
		return err
	}

	inst, err := a.setup(ctx)
	if err != nil {
		return err
	}
	defer inst.close()

	hosts := a.hosts(inst.cfg)

	switch a.Mode {
	case ModeDiscover:
		res := inst.checker.DiscoverAll(ctx, hosts)
		if err := writeDiscovery(a.Out, a.Format, res); err != nil {
			return err
		}
		return discoveryErrors(res)
	case ModeCheck:
		res := inst.checker.CheckAll(ctx, hosts)
		if err := writeCheck(a.Out, a.Format, res); err != nil {
			return err
		}
		return checkErrors(res)
	default:
		return fmt.Errorf("%w '%s'", ErrUnknownMode, a.Mode)
	}
}

func (a *Agent) run(ctx context.Context) {
	a.Info("instance is started")
	defer func() { a.Info("instance is stopped") }()

	var wg sync.WaitGroup
	defer wg.Wait()

	inst, err := a.setup(ctx)
	if err != nil {
		a.Error(err)
		// keep watching, a fixed configuration restarts the instance
		wg.Add(1)
		go func() { defer wg.Done(); a.watchConfig(ctx, 0) }()
		<-ctx.Done()
		return
	}
	defer inst.close()

	a.Infof("using config: %s (%d hosts, interval %ds)", inst.cfg.Path(), len(inst.cfg.Hosts), inst.cfg.Interval)

	hash, err := inst.cfg.Hash()
	if err != nil {
		a.Warningf("config hash: %v", err)
	}
	wg.Add(1)
	go func() { defer wg.Done(); a.watchConfig(ctx, hash) }()

	snap := newSnapshot()
	persister := filepersister.New(filepath.Join(inst.cfg.VarLibDir, "results.json"))
	wg.Add(1)
	go func() { defer wg.Done(); persister.Run(ctx, snap) }()

	a.discoverMissing(ctx, inst)

	tk := time.NewTicker(time.Duration(inst.cfg.Interval) * time.Second)
	defer tk.Stop()

	for {
		a.checkCycle(ctx, inst, snap)

		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}
	}
}

// discoverMissing runs discovery for hosts that were never discovered.
func (a *Agent) discoverMissing(ctx context.Context, inst *instance) {
	var hosts []string
	for _, host := range a.hosts(inst.cfg) {
		if _, err := os.Stat(inst.store.Path(host)); errors.Is(err, os.ErrNotExist) {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		return
	}

	a.Infof("running discovery for %d undiscovered hosts", len(hosts))
	for _, res := range inst.checker.DiscoverAll(ctx, hosts) {
		if res.Error == "" {
			a.Infof("host '%s': discovered %d services", res.Host, len(res.Services))
		}
	}
}

func (a *Agent) checkCycle(ctx context.Context, inst *instance, snap *snapshot) {
	start := time.Now()
	res := inst.checker.CheckAll(ctx, a.hosts(inst.cfg))

	snap.update(res)
	for _, r := range res {
		if r.Error != "" {
			continue
		}
		a.Debugf("host '%s': %d services, worst state %s", r.Host, len(r.Services), r.Worst())
	}
	if err := writeCheck(a.Out, a.Format, res); err != nil {
		a.Warningf("write results: %v", err)
	}

	a.Debugf("check cycle finished in %s", time.Since(start))
}

func discoveryErrors(res []*checker.DiscoveryResult) error {
	var errs []error
	for _, r := range res {
		if r.Error != "" {
			errs = append(errs, fmt.Errorf("host '%s': %s", r.Host, r.Error))
		}
	}
	return errors.Join(errs...)
}

func checkErrors(res []*checker.HostResult) error {
	var errs []error
	for _, r := range res {
		if r.Error != "" {
			errs = append(errs, fmt.Errorf("host '%s': %s", r.Host, r.Error))
		}
	}
	return errors.Join(errs...)
}
