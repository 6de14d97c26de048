// Package pipeline runs build and watch: load the manifest, derive the bundle
// plan, then hand every unit to a bundler.
package pipeline

import (
	"context"
	"errors"
	"os"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fulmenhq/strapi-plugin/pkg/bundle"
	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

// State is a step of the build/watch state machine.
type State string

const (
	StateIdle            State = "IDLE"
	StateLoadingManifest State = "LOADING_MANIFEST"
	StateDerivingPlan    State = "DERIVING_PLAN"
	StateBuilding        State = "BUILDING"
	StateDone            State = "DONE"
	StateWatching        State = "WATCHING"
	StateStopped         State = "STOPPED"
	StateError           State = "ERROR"
)

// ErrNoBundler is returned when options carry no bundler factory.
var ErrNoBundler = errors.New("pipeline: no bundler configured")

// Bundler compiles one unit.
type Bundler interface {
	Build(ctx context.Context, unit bundle.Unit) error
}

// BundlerFactory creates the bundler once the plan is known, since bundler
// settings such as externals and the plugin root come from the manifest.
type BundlerFactory func(plan *Plan) Bundler

// Reporter receives per-task progress.
type Reporter interface {
	Running(task string)
	Succeeded(task string)
	Failed(task string)
}

// StateFunc observes transitions. unit names the bundle for BUILDING and
// WATCHING, and for DONE while watching; it is empty otherwise.
type StateFunc func(state State, unit string)

// Plan is a loaded manifest and the units derived from it.
type Plan struct {
	Document *manifest.Document
	Manifest *manifest.Manifest
	Units    []bundle.Unit
}

// Dir is the plugin root.
func (p *Plan) Dir() string {
	return p.Document.Dir
}

// LoadPlan reads package.json from dir upward, validates it and derives the
// units. The manifest is read once; later edits are not picked up.
func LoadPlan(dir string, log *logger.Logger) (*Plan, error) {
	return newCommon(log, nil, nil).loadPlan(dir)
}

func (c common) loadPlan(dir string) (*Plan, error) {
	c.onState(StateLoadingManifest, "")
	doc, err := manifest.Load(dir, c.log)
	if err != nil {
		c.log.Debug("Path checked – " + dir)
		return nil, err
	}
	m, err := manifest.Validate(doc.Root, c.log)
	if err != nil {
		return nil, err
	}

	c.onState(StateDerivingPlan, "")
	units, err := bundle.Derive(m)
	if err != nil {
		return nil, err
	}
	return &Plan{Document: doc, Manifest: m, Units: units}, nil
}

// Runtime options shared by Build and Watch.
type common struct {
	log      *logger.Logger
	reporter Reporter
	onState  StateFunc
}

func newCommon(log *logger.Logger, rep Reporter, onState StateFunc) common {
	if log == nil {
		log = logger.Nop()
	}
	if rep == nil {
		rep = nopReporter{}
	}
	if onState == nil {
		onState = func(State, string) {}
	}
	return common{log: log, reporter: rep, onState: onState}
}

// warnLegacyConfig logs once when a retired bundler config file exists.
func (c common) warnLegacyConfig(dir string, silent bool) {
	if silent {
		return
	}
	if name, ok := bundle.LegacyConfigFile(dir); ok {
		c.log.Warn(bundle.LegacyConfigWarning(name))
	}
}

// title renders a unit name for task lines, e.g. "Admin". Casers are
// stateful, so each call gets its own.
func title(name string) string {
	return cases.Title(language.English).String(name)
}

// setEnv sets key for the duration of a run and returns the restore func.
func setEnv(key, value string) func() {
	prev, had := os.LookupEnv(key)
	_ = os.Setenv(key, value)
	return func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	}
}

type nopReporter struct{}

func (nopReporter) Running(string)   {}
func (nopReporter) Succeeded(string) {}
func (nopReporter) Failed(string)    {}
