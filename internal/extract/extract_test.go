// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const missingExtendWarning = "job to extend not available: ignoring"

// newObservedExtractor returns an Extractor whose warnings are captured.
func newObservedExtractor(t *testing.T, opts ...Option) (*Extractor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewExtractor(zap.New(core).Sugar(), opts...), logs
}

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		job  string
		want string
	}{
		{
			name: "inherits before_script and overrides script",
			doc: `
build:
  extends: base
  script: [make]
base:
  before_script: [echo hi]
  script: [echo default]
`,
			job:  "build",
			want: "#!/usr/bin/env sh\necho hi\nmake\n",
		},
		{
			name: "own sections in fixed order regardless of key order",
			doc: `
job:
  after_script: [echo after]
  script: [echo main]
  before_script: [echo before]
`,
			job:  "job",
			want: "#!/usr/bin/env sh\necho before\necho main\necho after\n",
		},
		{
			name: "only script",
			doc: `
job1:
  script:
    - echo one
    - echo two
`,
			job:  "job1",
			want: "#!/usr/bin/env sh\necho one\necho two\n",
		},
		{
			name: "job without sections renders only the shebang",
			doc: `
job:
  stage: test
`,
			job:  "job",
			want: "#!/usr/bin/env sh\n",
		},
		{
			name: "parent-only sections are inherited unchanged",
			doc: `
.template:
  before_script: [setup]
  after_script: [teardown]
job:
  extends: .template
  script: [run]
`,
			job:  "job",
			want: "#!/usr/bin/env sh\nsetup\nrun\nteardown\n",
		},
		{
			name: "child section replaces rather than appends",
			doc: `
base:
  script: [a, b, c]
job:
  extends: base
  script: [d]
`,
			job:  "job",
			want: "#!/usr/bin/env sh\nd\n",
		},
		{
			name: "present but empty child section overrides parent",
			doc: `
base:
  before_script: [echo hi]
  script: [echo default]
job:
  extends: base
  before_script: []
`,
			job:  "job",
			want: "#!/usr/bin/env sh\necho default\n",
		},
		{
			name: "null child section leaves parent section in place",
			doc: `
base:
  script: [echo default]
job:
  extends: base
  script:
`,
			job:  "job",
			want: "#!/usr/bin/env sh\necho default\n",
		},
		{
			name: "second-level extends is not followed",
			doc: `
grandparent:
  before_script: [echo grand]
parent:
  extends: grandparent
  script: [echo parent]
job:
  extends: parent
`,
			job:  "job",
			want: "#!/usr/bin/env sh\necho parent\n",
		},
		{
			name: "extend target that is not a mapping contributes nothing",
			doc: `
stages: [build, test]
job:
  extends: stages
  script: [make]
`,
			job:  "job",
			want: "#!/usr/bin/env sh\nmake\n",
		},
		{
			name: "anchors and merge keys are resolved by the parser",
			doc: `
.defaults: &defaults
  before_script: [echo setup]
job:
  <<: *defaults
  script: [make]
`,
			job:  "job",
			want: "#!/usr/bin/env sh\necho setup\nmake\n",
		},
		{
			name: "lines are emitted verbatim",
			doc: `
job:
  script:
    - 'if [ -n "$CI" ]; then echo ci; fi'
    - |
      for f in *.sh; do
        shellcheck "$f"
      done
`,
			job:  "job",
			want: "#!/usr/bin/env sh\nif [ -n \"$CI\" ]; then echo ci; fi\nfor f in *.sh; do\n  shellcheck \"$f\"\ndone\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, logs := newObservedExtractor(t)
			got, err := e.Extract(mustParse(t, tt.doc), tt.job)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, logs.FilterMessage(missingExtendWarning).Len())
		})
	}
}

func TestExtractMissingExtendTarget(t *testing.T) {
	doc := mustParse(t, `
job:
  extends: nowhere
  before_script: [echo before]
  script: [echo main]
`)
	plain := mustParse(t, `
job:
  before_script: [echo before]
  script: [echo main]
`)

	e, logs := newObservedExtractor(t)
	got, err := e.Extract(doc, "job")
	require.NoError(t, err)

	want, err := NewExtractor(nil).Extract(plain, "job")
	require.NoError(t, err)
	assert.Equal(t, want, got, "output should equal the job without extends")

	warnings := logs.FilterMessage(missingExtendWarning).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, map[string]interface{}{"job": "job", "extends": "nowhere"}, warnings[0].ContextMap())
}

func TestExtractNullExtendsWarns(t *testing.T) {
	for _, src := range []string{
		"job:\n  extends:\n  script: [a]\n",
		`job: {extends: "", script: [a]}`,
	} {
		t.Run(src, func(t *testing.T) {
			e, logs := newObservedExtractor(t)
			got, err := e.Extract(mustParse(t, src), "job")
			require.NoError(t, err)
			assert.Equal(t, "#!/usr/bin/env sh\na\n", got)

			warnings := logs.FilterMessage(missingExtendWarning).All()
			require.Len(t, warnings, 1)
			assert.Equal(t, "", warnings[0].ContextMap()["extends"])
		})
	}
}

func TestExtractJobNotFound(t *testing.T) {
	doc := mustParse(t, `
job1:
  script: [echo one]
`)
	e := NewExtractor(nil)
	got, err := e.Extract(doc, "job2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJobNotFound))
	assert.Contains(t, err.Error(), `"job2"`)
	assert.Empty(t, got)
}

func TestExtractNotAJob(t *testing.T) {
	doc := mustParse(t, `
stages: [build]
`)
	_, err := NewExtractor(nil).Extract(doc, "stages")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAJob))
}

func TestExtractListExtendsUnsupported(t *testing.T) {
	doc := mustParse(t, `
a:
  script: [echo a]
job:
  extends: [a]
`)
	_, err := NewExtractor(nil).Extract(doc, "job")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `decoding job "job"`)
}

func TestExtractWithShebang(t *testing.T) {
	doc := mustParse(t, `
job:
  script: [echo ok]
`)
	tests := []struct {
		name    string
		shebang string
		want    string
	}{
		{name: "custom", shebang: "#!/bin/bash", want: "#!/bin/bash\necho ok\n"},
		{name: "empty keeps default", shebang: "", want: "#!/usr/bin/env sh\necho ok\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor(nil, WithShebang(tt.shebang)).Extract(doc, "job")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	src := `
base:
  before_script: [echo hi]
  after_script: [echo bye]
build:
  extends: base
  script: [make, make test]
`
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitlab-ci.yml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	e := NewExtractor(nil)
	first, err := e.ExtractFile(path, "build")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.ExtractFile(path, "build")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "#!/usr/bin/env sh\necho hi\nmake\nmake test\necho bye\n", first)
}

func TestExtractFileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("job: [unclosed\n"), 0o644))

	e := NewExtractor(nil)

	_, err := e.ExtractFile(bad, "job")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), bad)

	_, err = e.ExtractFile(filepath.Join(dir, "missing.yml"), "job")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
