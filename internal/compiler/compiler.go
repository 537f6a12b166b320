// Package compiler turns a user bindings source into an editor key map.
//
// A compile pass resolves the configured paths, runs the source against a
// fresh binding.Builder, and replaces the destination only when the source
// ran cleanly and declared at least one binding.
package compiler

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dshills/spk/internal/binding"
	"github.com/dshills/spk/internal/dsl"
	"github.com/dshills/spk/internal/keymap"
	"github.com/dshills/spk/internal/vars"
)

// Options describes one compile pass.
type Options struct {
	// Bindings is the source path template.
	Bindings string

	// Destination is the key map path template.
	Destination string

	// Timeout bounds script execution. Zero uses the dsl default.
	Timeout time.Duration

	// Platform is passed to scripts. Empty means the running platform.
	Platform string

	// Output, when set, receives the key map instead of Destination.
	Output io.Writer
}

// Result describes a successful compile pass.
type Result struct {
	RunID       string
	Source      string
	Destination string
	Count       int
	Records     []binding.Record
}

// Source runs a bindings file of some format against b.
type Source func(ctx context.Context, path string, b *binding.Builder, opts Options, log logrus.FieldLogger) error

// Compiler runs compile passes.
type Compiler struct {
	expander *vars.Expander
	logger   logrus.FieldLogger
	sources  map[string]Source
}

// New creates a Compiler. A nil expander uses vars.New().
func New(expander *vars.Expander, logger logrus.FieldLogger) *Compiler {
	if expander == nil {
		expander = vars.New()
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Compiler{
		expander: expander,
		logger:   logger,
		sources: map[string]Source{
			".lua":  luaSource,
			".yaml": yamlSource,
			".yml":  yamlSource,
		},
	}
}

// Resolve expands the source and destination path templates.
func (c *Compiler) Resolve(opts Options) (source, dest string) {
	return c.expander.ExpandPath(opts.Bindings), c.expander.ExpandPath(opts.Destination)
}

// Compile runs one compile pass.
func (c *Compiler) Compile(ctx context.Context, opts Options) (*Result, error) {
	source, dest := c.Resolve(opts)
	runID := uuid.NewString()

	log := c.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"source": source,
	})

	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		log.Warn("Bindings file not found")
		return nil, &MissingSourceError{Path: source}
	}

	b := binding.NewBuilder()
	log.Debug("Running bindings source")
	if err := c.sourceFor(source)(ctx, source, b, opts, log); err != nil {
		c.logFailure(log, err)
		return nil, &CompilationError{Path: source, Err: err}
	}

	if b.Len() == 0 {
		log.Warn("No key bindings defined")
		return nil, &EmptyResultError{Path: source}
	}

	records := b.Records()
	if opts.Output != nil {
		if err := keymap.Encode(opts.Output, records); err != nil {
			return nil, err
		}
	} else if err := keymap.WriteFile(dest, records); err != nil {
		log.WithError(err).Error("Writing key map failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"destination": dest,
		"count":       len(records),
		"dry_run":     opts.Output != nil,
	}).Info(MsgUpdated)

	return &Result{
		RunID:       runID,
		Source:      source,
		Destination: dest,
		Count:       len(records),
		Records:     records,
	}, nil
}

func (c *Compiler) sourceFor(path string) Source {
	if src, ok := c.sources[strings.ToLower(filepath.Ext(path))]; ok {
		return src
	}
	return luaSource
}

func (c *Compiler) logFailure(log logrus.FieldLogger, err error) {
	var shape *binding.ShapeError
	if errors.As(err, &shape) {
		log.WithError(err).Warn("Malformed binding")
		return
	}

	entry := log.WithError(err)
	var se *dsl.ScriptError
	if errors.As(err, &se) && se.StackTrace != "" {
		entry = entry.WithField("stack", se.StackTrace)
	}
	entry.Error("Bindings source failed")
}

func luaSource(ctx context.Context, path string, b *binding.Builder, opts Options, log logrus.FieldLogger) error {
	return dsl.Run(ctx, path, b, dsl.Options{
		Timeout:  opts.Timeout,
		Platform: opts.Platform,
		Print: func(line string) {
			log.WithField("script", filepath.Base(path)).Info(line)
		},
	})
}

func yamlSource(_ context.Context, path string, b *binding.Builder, _ Options, _ logrus.FieldLogger) error {
	return keymap.LoadYAML(path, b)
}
