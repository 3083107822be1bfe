// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// Section names in the order they are emitted.
const (
	KeyBeforeScript = "before_script"
	KeyScript       = "script"
	KeyAfterScript  = "after_script"
)

// SectionKeys lists the script sections in output order.
var SectionKeys = []string{KeyBeforeScript, KeyScript, KeyAfterScript}

// Limits on flattening a section. Aliases are expanded while flattening, so
// the node and byte budgets keep a small document from producing an
// exponentially large script.
const (
	maxNesting = 10
	maxNodes   = 1 << 16
	maxBytes   = 1 << 24
)

// Section is an ordered list of shell command lines. A nil Section means the
// key was absent from the job; a non-nil empty Section means it was present
// but held no lines.
type Section []string

// UnmarshalYAML decodes a section from a sequence of scalars. Nested
// sequences (as produced by anchors like `- *setup`) are flattened in order,
// and a bare scalar is read as a one-line section. A null value never
// reaches this method, so it leaves the section absent.
func (s *Section) UnmarshalYAML(node *yaml.Node) error {
	f := &flattener{lines: []string{}}
	if err := f.flatten(node, 0); err != nil {
		return err
	}
	*s = f.lines
	return nil
}

// flattener collects the lines of a section and tracks how much work the
// expansion has done.
type flattener struct {
	lines []string
	nodes int
	bytes int
}

func (f *flattener) flatten(node *yaml.Node, depth int) error {
	if depth > maxNesting {
		return errors.Errorf("line %d: script nested deeper than %d levels", node.Line, maxNesting)
	}
	if f.nodes++; f.nodes > maxNodes {
		return errors.Errorf("line %d: script expands to more than %d nodes", node.Line, maxNodes)
	}
	if tag := node.ShortTag(); isLocalTag(tag) {
		return errors.Errorf("line %d: unsupported tag %s", node.Line, tag)
	}

	switch node.Kind {
	case yaml.AliasNode:
		return f.flatten(node.Alias, depth)
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return errors.Errorf("line %d: empty script line", node.Line)
		}
		if f.bytes += len(node.Value) + 1; f.bytes > maxBytes {
			return errors.Errorf("line %d: script expands to more than %d bytes", node.Line, maxBytes)
		}
		f.lines = append(f.lines, node.Value)
		return nil
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := f.flatten(item, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("line %d: script must be a string or a list of strings", node.Line)
	}
}

// isLocalTag reports whether tag is an application tag such as !reference,
// as opposed to one of the core !!-prefixed tags.
func isLocalTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}

// Sections holds the three script sections of a job.
type Sections struct {
	BeforeScript Section `yaml:"before_script"`
	Script       Section `yaml:"script"`
	AfterScript  Section `yaml:"after_script"`
}

// Get returns the section stored under key, or nil for unknown keys.
func (s Sections) Get(key string) Section {
	switch key {
	case KeyBeforeScript:
		return s.BeforeScript
	case KeyScript:
		return s.Script
	case KeyAfterScript:
		return s.AfterScript
	}
	return nil
}

// Override replaces every section of s that is present in other. Lines are
// never appended: a present section fully replaces the inherited one.
func (s *Sections) Override(other Sections) {
	if other.BeforeScript != nil {
		s.BeforeScript = other.BeforeScript
	}
	if other.Script != nil {
		s.Script = other.Script
	}
	if other.AfterScript != nil {
		s.AfterScript = other.AfterScript
	}
}

// Lines concatenates the present sections in output order.
func (s Sections) Lines() []string {
	var lines []string
	for _, key := range SectionKeys {
		lines = append(lines, s.Get(key)...)
	}
	return lines
}
