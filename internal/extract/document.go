// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

var (
	// ErrParse marks a configuration file that is not a valid YAML mapping.
	ErrParse = errors.New("invalid configuration document")

	// ErrJobNotFound marks a lookup of a job name absent from the document.
	ErrJobNotFound = errors.New("job not found")

	// ErrNotAJob marks a top-level entry that is not a mapping.
	ErrNotAJob = errors.New("entry is not a job definition")
)

// ParseError reports why a configuration document could not be loaded.
// It matches ErrParse under errors.Is.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrParse, e.Err)
	}
	return fmt.Sprintf("%v %s: %v", ErrParse, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// reservedKeys are top-level keywords of a GitLab CI file that never name a job.
var reservedKeys = map[string]bool{
	"after_script":  true,
	"before_script": true,
	"cache":         true,
	"default":       true,
	"image":         true,
	"include":       true,
	"services":      true,
	"stages":        true,
	"types":         true,
	"variables":     true,
	"workflow":      true,
}

// Job is the part of a job definition the extractor reads.
type Job struct {
	// Extends names a single job whose sections are inherited.
	Extends string

	// HasExtends is true when the extends key is present, even with a null
	// or empty value.
	HasExtends bool

	Sections
}

// UnmarshalYAML decodes the sections and the extends key. A null extends
// is kept as present with an empty name.
func (j *Job) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Extends  yaml.Node `yaml:"extends"`
		Sections `yaml:",inline"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*j = Job{Sections: raw.Sections}
	if raw.Extends.Kind == 0 {
		return nil
	}
	j.HasExtends = true
	if raw.Extends.ShortTag() == "!!null" {
		return nil
	}
	return raw.Extends.Decode(&j.Extends)
}

// Document is a loaded CI configuration: top-level keys mapped to their
// undecoded YAML nodes. Entries are only decoded when looked up, so
// top-level keywords like stages or image never need to look like jobs.
type Document struct {
	entries map[string]yaml.Node
}

// Load reads and parses the configuration file at path. The file is closed
// before Load returns.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening configuration")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	doc, err := parse(data)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Path: path, Err: err})
	}
	return doc, nil
}

// Parse decodes a configuration document held in memory.
func Parse(data []byte) (*Document, error) {
	doc, err := parse(data)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Err: err})
	}
	return doc, nil
}

func parse(data []byte) (*Document, error) {
	var entries map[string]yaml.Node
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, errors.New("document is empty")
	}
	return &Document{entries: entries}, nil
}

// lookup returns the entry called name with a top-level alias resolved.
func (d *Document) lookup(name string) (*yaml.Node, bool) {
	node, ok := d.entries[name]
	if !ok {
		return nil, false
	}
	n := &node
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n, true
}

// Job decodes the job called name. It returns an error matching
// ErrJobNotFound when the document has no such key.
func (d *Document) Job(name string) (*Job, error) {
	node, ok := d.lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrJobNotFound, "%q", name)
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(ErrNotAJob, "%q", name)
	}

	var job Job
	if err := node.Decode(&job); err != nil {
		return nil, errors.Wrapf(err, "decoding job %q", name)
	}
	return &job, nil
}

// sections decodes only the script sections of the entry called name. The
// boolean is false when the entry is missing. An entry that exists but is not
// a mapping contributes no sections.
func (d *Document) sections(name string) (Sections, bool, error) {
	node, ok := d.lookup(name)
	if !ok {
		return Sections{}, false, nil
	}
	if node.Kind != yaml.MappingNode {
		return Sections{}, true, nil
	}

	var s Sections
	if err := node.Decode(&s); err != nil {
		return Sections{}, true, errors.Wrapf(err, "decoding job %q", name)
	}
	return s, true, nil
}

// Jobs returns the sorted names of entries that can be extracted: mappings
// that are neither hidden templates (leading dot) nor reserved keywords.
func (d *Document) Jobs() []string {
	var names []string
	for name := range d.entries {
		if strings.HasPrefix(name, ".") || reservedKeys[name] {
			continue
		}
		if node, _ := d.lookup(name); node.Kind != yaml.MappingNode {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
