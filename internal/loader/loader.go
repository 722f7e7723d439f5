// Package loader resolves the runtime environment, walks the cascade of
// candidate YAML files and merges every file that exists into one mapping.
package loader

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envcascade/internal/cascade"
	"github.com/eugenenazirov/envcascade/internal/env"
	"github.com/eugenenazirov/envcascade/internal/environment"
	"github.com/eugenenazirov/envcascade/internal/node"
	"github.com/eugenenazirov/envcascade/internal/substitute"
)

// Parser turns substituted file content into a node tree.
type Parser interface {
	Parse(data []byte) (node.Node, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(data []byte) (node.Node, error)

// Parse implements Parser.
func (f ParserFunc) Parse(data []byte) (node.Node, error) { return f(data) }

// Options selects what a single load reads.
type Options struct {
	// FilePath is the cascade base path, with or without extension.
	// Empty means cascade.DefaultBasePath.
	FilePath string
	// Environment overrides environment discovery when non-empty.
	Environment string
	// ExcludeLocal drops the *.local variants. Local files are included by
	// default.
	ExcludeLocal bool
}

// Report describes a completed load.
type Report struct {
	Environment string
	Candidates  []string
	// Files lists the candidates that existed and were merged, in order.
	Files []string
	// Unresolved lists placeholder names left in place because neither a
	// variable nor a default was available.
	Unresolved []string
	Config     *node.Mapping
}

// Result is delivered by LoadAsync.
type Result struct {
	Config *node.Mapping
	Err    error
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS overrides the file system (defaults to OSFS).
func WithFS(fsys FS) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithParser overrides the YAML parser.
func WithParser(p Parser) Option {
	return func(l *Loader) {
		l.parser = p
	}
}

// WithLookup overrides the environment variable source used for environment
// discovery and placeholder substitution.
func WithLookup(lookup env.Lookup) Option {
	return func(l *Loader) {
		l.lookup = lookup
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader loads layered configuration. A Loader holds no per-load state and may
// be used from multiple goroutines.
type Loader struct {
	fs          FS
	parser      Parser
	lookup      env.Lookup
	logger      *zap.Logger
	resolver    *environment.Resolver
	substitutor *substitute.Substitutor
}

// New creates a Loader reading the host file system and process environment.
// Without WithLogger it logs to zap's global logger.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:     OSFS{},
		parser: ParserFunc(node.Parse),
		lookup: env.OS,
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.Named("loader")
	l.lookup = env.OrOS(l.lookup)
	l.resolver = environment.NewResolver(l.lookup, l.logger)
	l.substitutor = substitute.New(l.lookup)
	return l
}

// Load merges every existing cascade file and returns the result.
func (l *Loader) Load(opts Options) (*node.Mapping, error) {
	report, err := l.LoadDetailed(opts)
	if err != nil {
		return nil, err
	}
	return report.Config, nil
}

// LoadDetailed is Load that also reports which files were considered and read.
func (l *Loader) LoadDetailed(opts Options) (*Report, error) {
	return l.load(context.Background(), opts)
}

// LoadAsync runs Load on a new goroutine and delivers exactly one Result.
// Files are still read and merged one at a time in cascade order; ctx is
// checked before each candidate.
func (l *Loader) LoadAsync(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)

		report, err := l.load(ctx, opts)
		if err != nil {
			out <- Result{Err: err}
			return
		}
		out <- Result{Config: report.Config}
	}()
	return out
}

func (l *Loader) load(ctx context.Context, opts Options) (*Report, error) {
	environmentName := opts.Environment
	if environmentName == "" {
		environmentName = l.resolver.Resolve()
	}

	report := &Report{
		Environment: environmentName,
		Candidates:  cascade.Build(opts.FilePath, environmentName, !opts.ExcludeLocal),
		Config:      node.NewMapping(),
	}

	for _, path := range report.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		if !l.fs.Exists(path) {
			continue
		}

		if ce := l.logger.Check(zap.DebugLevel, "reading file"); ce != nil {
			ce.Write(zap.String("path", path), zap.String("environment", environmentName))
		}

		doc, unresolved, err := l.readDocument(path)
		if err != nil {
			return nil, err
		}
		report.Files = append(report.Files, path)
		report.Unresolved = appendUnique(report.Unresolved, unresolved...)
		report.Config = node.Merge(report.Config, doc)
	}

	return report, nil
}

// readDocument returns nil for an empty or null document.
func (l *Loader) readDocument(path string) (*node.Mapping, []string, error) {
	raw, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, nil, &FileError{Path: path, Op: "read", Err: err}
	}

	text, unresolved := l.substitutor.SubstituteReport(string(raw))
	if len(unresolved) > 0 {
		if ce := l.logger.Check(zap.DebugLevel, "unresolved placeholders"); ce != nil {
			ce.Write(zap.String("path", path), zap.Strings("names", unresolved))
		}
	}

	parsed, err := l.parser.Parse([]byte(text))
	if err != nil {
		return nil, nil, &FileError{Path: path, Op: "parse", Err: err}
	}

	switch doc := parsed.(type) {
	case *node.Mapping:
		return doc, unresolved, nil
	case node.Scalar:
		if doc.IsNull() {
			return nil, unresolved, nil
		}
	case nil:
		return nil, unresolved, nil
	}
	return nil, nil, &FileError{
		Path: path,
		Op:   "parse",
		Err:  fmt.Errorf("%w: got %s", ErrNotMapping, parsed.Kind()),
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// Read loads configuration from the host file system and process environment.
func Read(opts Options) (*node.Mapping, error) {
	return New().Load(opts)
}

// ReadAsync is the non-blocking form of Read.
func ReadAsync(ctx context.Context, opts Options) <-chan Result {
	return New().LoadAsync(ctx, opts)
}
