//go:build mage

package main

import (
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/pkg/errors"

	"github.com/deploy2zenodo/yaml2script/internal/extract"
	"github.com/deploy2zenodo/yaml2script/internal/lint"
	"github.com/deploy2zenodo/yaml2script/internal/logging"
)

const defaultCIFile = ".gitlab-ci.yml"

// Shellcheck extracts the script of every job in the CI file and runs
// shellcheck on it. The file defaults to .gitlab-ci.yml; set CI_FILE to
// check another one and SHELLCHECK_IMAGE to pick the container image used
// when shellcheck is not installed.
func Shellcheck() error {
	ciFile := os.Getenv("CI_FILE")
	if ciFile == "" {
		ciFile = defaultCIFile
	}

	level := "warn"
	if mg.Verbose() {
		level = "debug"
	}
	log, err := logging.New(logging.Config{Level: level})
	if err != nil {
		return err
	}
	defer log.Sync()

	checker, err := lint.Detect(os.Getenv("SHELLCHECK_IMAGE"))
	if err != nil {
		return err
	}
	log.Debugw("using shellcheck", "runner", checker.Name())

	doc, err := extract.Load(ciFile)
	if err != nil {
		return err
	}

	result := lint.CheckJobs(extract.NewExtractor(log), doc, checker, os.Stdout)
	if result.HasFailures() {
		return errors.Errorf("shellcheck failed for %d job(s): %s", result.Failed, strings.Join(result.FailedJobs, ", "))
	}
	return nil
}
