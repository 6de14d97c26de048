// Package verify runs the pre-publish checks for a plugin: load and validate
// package.json, enforce the exports contract, then confirm every exported file
// exists on disk.
package verify

import (
	"context"

	"github.com/fulmenhq/strapi-plugin/pkg/exports"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

// Task titles reported while verifying.
const (
	TaskManifest      = "Verifying package.json"
	TaskManifestDone  = "Verified package.json"
	TaskExportFiles   = "Checking files for exports"
	TaskExportFilesOK = "Checked files for exports"
)

// Reporter receives progress for user feedback. It never influences control
// flow.
type Reporter interface {
	Running(task string)
	Succeeded(task string)
	Failed(task string)
}

// Options configures Run.
type Options struct {
	// Dir is where the package.json search starts.
	Dir      string
	Logger   *logger.Logger
	Reporter Reporter
	// Concurrency bounds parallel file checks. Zero means GOMAXPROCS.
	Concurrency int
}

// Result is what a successful run validated.
type Result struct {
	Document *manifest.Document
	Manifest *manifest.Manifest
}

// Run executes the stages in strict sequence. The first failing stage aborts
// the rest and its error is returned unchanged.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = nopReporter{}
	}

	rep.Running(TaskManifest)
	fail := func(task string, err error) error {
		rep.Failed(task)
		log.Error(err.Error())
		return err
	}

	doc, err := manifest.Load(opts.Dir, log)
	if err != nil {
		log.Debug("Path checked – " + opts.Dir)
		return nil, fail(TaskManifest, err)
	}

	m, err := manifest.Validate(doc.Root, log)
	if err != nil {
		return nil, fail(TaskManifest, err)
	}

	if err := exports.RequirePrimaryExport(m); err != nil {
		return nil, fail(TaskManifest, err)
	}

	if _, err := exports.ValidateOrdering(m, log); err != nil {
		return nil, fail(TaskManifest, err)
	}
	rep.Succeeded(TaskManifestDone)

	if m.Exports != nil {
		rep.Running(TaskExportFiles)
		err := exports.CheckFiles(ctx, m.Exports, doc.Dir, exports.CheckOptions{Concurrency: opts.Concurrency})
		if err != nil {
			return nil, fail(TaskExportFiles, err)
		}
		rep.Succeeded(TaskExportFilesOK)
	}

	return &Result{Document: doc, Manifest: m}, nil
}

type nopReporter struct{}

func (nopReporter) Running(string)   {}
func (nopReporter) Succeeded(string) {}
func (nopReporter) Failed(string)    {}
