package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/config"
	"github.com/roach88/costcore/internal/engine"
	"github.com/roach88/costcore/internal/ingest"
	"github.com/roach88/costcore/internal/logging"
	"github.com/roach88/costcore/internal/metrics"
	"github.com/roach88/costcore/internal/rules"
	"github.com/roach88/costcore/internal/store"
)

// session is everything one command invocation needs: resolved config,
// an open store and an engine wired with logging and metrics.
type session struct {
	cfg      config.Config
	store    *store.Store
	engine   *engine.Engine
	logger   *zap.Logger
	registry *prometheus.Registry
	out      *OutputFormatter
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openSession resolves configuration and opens the store. The caller must
// Close the session.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Resolve(config.Flags{ConfigPath: opts.ConfigPath, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	policy := rules.DefaultPolicy()
	if policy.Tolerance, err = cfg.Tolerance(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	var normalizer ingest.Normalizer = ingest.IdentityNormalizer{}
	if cfg.Ingest.NameMappings != "" {
		m, err := ingest.LoadMappings(cfg.Ingest.NameMappings)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load name mappings", err)
		}
		out.VerboseLog("Loaded %d name mapping(s) from %s", m.Len(), cfg.Ingest.NameMappings)
		normalizer = m
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	out.VerboseLog("Opened database %s", cfg.Database.Path)

	reg := prometheus.NewRegistry()
	eng := engine.New(st,
		engine.WithPolicy(policy),
		engine.WithNormalizer(normalizer),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.New(reg)),
	)

	return &session{
		cfg:      cfg,
		store:    st,
		engine:   eng,
		logger:   logger,
		registry: reg,
		out:      out,
	}, nil
}

// Close reports metrics in verbose mode, flushes the logger and closes the store.
func (s *session) Close() {
	if s.out.Verbose {
		s.reportMetrics()
	}
	_ = s.logger.Sync()
	s.store.Close()
}

// reportMetrics writes every non-zero sample of the session registry to
// the diagnostic writer.
func (s *session) reportMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.out.VerboseLog("metrics unavailable: %v", err)
		return
	}
	var lines []string
	for _, f := range families {
		for _, m := range f.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", f.GetName(), strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		s.out.VerboseLog("metric %s", l)
	}
}
