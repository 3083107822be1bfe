// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lint runs shellcheck on extracted job scripts. Shellcheck is used
// from PATH when installed, otherwise through a docker or podman container.
package lint

import (
	"io"
	"os/exec"

	"github.com/pkg/errors"
)

const (
	binShellcheck = "shellcheck"
	binDocker     = "docker"
	binPodman     = "podman"

	// DefaultImage is the container image used when shellcheck is not installed.
	DefaultImage = "docker.io/koalaman/shellcheck:stable"
)

// Checker lints a single shell script.
type Checker interface {
	// Name returns the binary that runs the check.
	Name() string

	// Check feeds script to shellcheck, writing its findings to out. A
	// non-nil error means the script has findings or the check could not run.
	Check(script io.Reader, out io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stdout
	return cmd.Run()
}

// checker runs shellcheck either directly or as a container. A container
// checker prefixes the shellcheck arguments with the runtime's run command.
type checker struct {
	bin       string
	checkArgs []string // command that succeeds when the binary works
	prefix    []string // e.g. ["run", "--rm", "-i", image] for docker
	exec      executor
}

func (c *checker) Name() string { return c.bin }

func (c *checker) available() bool {
	if _, err := c.exec.LookPath(c.bin); err != nil {
		return false
	}
	return c.exec.RunSilent(c.bin, c.checkArgs...) == nil
}

func (c *checker) Check(script io.Reader, out io.Writer) error {
	args := make([]string, 0, len(c.prefix)+1)
	args = append(args, c.prefix...)
	args = append(args, "-")

	if err := c.exec.RunPiped(c.bin, args, script, out); err != nil {
		return errors.Wrap(err, c.bin)
	}
	return nil
}

func newNativeChecker(exec executor) *checker {
	return &checker{
		bin:       binShellcheck,
		checkArgs: []string{"--version"},
		exec:      exec,
	}
}

func newContainerChecker(bin, image string, exec executor) *checker {
	return &checker{
		bin:       bin,
		checkArgs: []string{"info"},
		prefix:    []string{"run", "--rm", "-i", image},
		exec:      exec,
	}
}

var defaultExec = &osExecutor{}

// Detect returns a Checker using shellcheck from PATH, falling back to
// docker and then podman running image. An empty image means DefaultImage.
func Detect(image string) (Checker, error) {
	return detect(defaultExec, image)
}

func detect(exec executor, image string) (Checker, error) {
	if image == "" {
		image = DefaultImage
	}

	candidates := []*checker{
		newNativeChecker(exec),
		newContainerChecker(binDocker, image, exec),
		newContainerChecker(binPodman, image, exec),
	}
	for _, c := range candidates {
		if c.available() {
			return c, nil
		}
	}

	return nil, errors.Errorf(
		"no shellcheck available: neither %s nor a %s or %s runtime found",
		binShellcheck, binDocker, binPodman,
	)
}
