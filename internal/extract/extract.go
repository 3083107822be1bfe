// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls the shell script out of one job of a CI
// configuration file. The job's before_script, script and after_script
// sections are concatenated, after inheriting sections from the single job
// named by its extends key, and rendered as a POSIX shell script.
package extract

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultShebang is the first line of every rendered script.
const DefaultShebang = "#!/usr/bin/env sh"

// Extractor resolves and renders job scripts. Warnings about missing extend
// targets go to its logger.
type Extractor struct {
	log     *zap.SugaredLogger
	shebang string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithShebang replaces the first line of rendered scripts. An empty value
// keeps the default.
func WithShebang(shebang string) Option {
	return func(e *Extractor) {
		if shebang != "" {
			e.shebang = shebang
		}
	}
}

// NewExtractor returns an Extractor that logs to logger. A nil logger
// discards warnings.
func NewExtractor(logger *zap.SugaredLogger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	e := &Extractor{log: logger, shebang: DefaultShebang}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve returns the script sections of the job called name. Sections of
// the job named by extends are copied first, then every section present on
// the job itself replaces the inherited one. Only one level of extends is
// followed. A missing extend target is logged and ignored.
func (e *Extractor) Resolve(doc *Document, name string) (Sections, error) {
	job, err := doc.Job(name)
	if err != nil {
		return Sections{}, err
	}

	var script Sections
	if job.HasExtends {
		parent, ok, err := doc.sections(job.Extends)
		if err != nil {
			return Sections{}, err
		}
		if ok {
			script = parent
		} else {
			e.log.Warnw("job to extend not available: ignoring", "job", name, "extends", job.Extends)
		}
	}

	script.Override(job.Sections)
	return script, nil
}

// Render formats sections as a shell script: the shebang line followed by
// before_script, script and after_script lines, newline terminated.
func (e *Extractor) Render(s Sections) string {
	lines := append([]string{e.shebang}, s.Lines()...)
	return strings.Join(lines, "\n") + "\n"
}

// Extract resolves the job called name and renders its script.
func (e *Extractor) Extract(doc *Document, name string) (string, error) {
	s, err := e.Resolve(doc, name)
	if err != nil {
		return "", err
	}
	return e.Render(s), nil
}

// ExtractFile loads the configuration at path and renders the script of the
// job called name.
func (e *Extractor) ExtractFile(path, name string) (string, error) {
	doc, err := Load(path)
	if err != nil {
		return "", err
	}
	e.log.Debugw("loaded configuration", "path", path, "jobs", len(doc.entries))
	return e.Extract(doc, name)
}
