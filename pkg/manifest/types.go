// Package manifest loads and validates a plugin's package.json.
//
// Loading is split in two steps. Load finds the nearest package.json and
// decodes it into an ordered tree. Validate checks that tree against the
// manifest shape and returns a typed, immutable *Manifest.
package manifest

import (
	"slices"

	"github.com/fulmenhq/strapi-plugin/pkg/logger"
)

// FileName is the manifest file searched for by Load.
const FileName = "package.json"

// Logger is the subset of *logger.Logger the manifest pipeline needs.
type Logger interface {
	Debug(message string, fields ...logger.Field)
	Warn(message string, fields ...logger.Field)
}

// ModuleType is the manifest "type" field.
type ModuleType string

const (
	ModuleTypeCommonJS ModuleType = "commonjs"
	ModuleTypeModule   ModuleType = "module"
)

// Manifest is a validated package.json.
type Manifest struct {
	Name string
	Type ModuleType

	// Main and Module are the legacy entry fields. HasMain and HasModule
	// record whether the keys were declared at all.
	Main      string
	Module    string
	HasMain   bool
	HasModule bool

	// Exports is nil when the manifest declares no "exports" key.
	Exports *ExportMap

	Dependencies     map[string]string
	DevDependencies  map[string]string
	PeerDependencies map[string]string

	// Warnings collects the non-fatal findings of schema validation.
	Warnings []Warning
}

// ExportMap is the ordered "exports" map.
type ExportMap struct {
	entries []ExportMapEntry
	index   map[string]int
}

// ExportMapEntry is one export path with either a literal string value or
// an Export object.
type ExportMapEntry struct {
	Path    string
	Literal string
	Export  *Export
}

// IsLiteral reports whether the entry value is a plain string.
func (e ExportMapEntry) IsLiteral() bool {
	return e.Export == nil
}

// NewExportMap builds an ExportMap from entries in declaration order.
func NewExportMap(entries ...ExportMapEntry) *ExportMap {
	m := &ExportMap{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		m.add(e)
	}
	return m
}

func (m *ExportMap) add(e ExportMapEntry) {
	if i, ok := m.index[e.Path]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.Path] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Entries returns the entries in declaration order.
func (m *ExportMap) Entries() []ExportMapEntry {
	if m == nil {
		return nil
	}
	return slices.Clone(m.entries)
}

// Get returns the entry for an export path.
func (m *ExportMap) Get(path string) (ExportMapEntry, bool) {
	if m == nil {
		return ExportMapEntry{}, false
	}
	i, ok := m.index[path]
	if !ok {
		return ExportMapEntry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of entries.
func (m *ExportMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Export describes one publishable module surface. Keys holds the declared
// key order of the object, which the ordering rules inspect.
type Export struct {
	Keys []string

	Types   string
	Source  string
	Module  string
	Import  string
	Require string
	Default string

	Browser *BrowserExport
	Node    *NodeExport
}

// Has reports whether key was declared on the export object.
func (e *Export) Has(key string) bool {
	return e != nil && slices.Contains(e.Keys, key)
}

// BrowserExport is the "browser" condition of an export.
type BrowserExport struct {
	Keys    []string
	Source  string
	Import  string
	Require string
}

// NodeExport is the "node" condition of an export.
type NodeExport struct {
	Keys    []string
	Source  string
	Module  string
	Import  string
	Require string
}

// Has reports whether key was declared on the node condition.
func (n *NodeExport) Has(key string) bool {
	return n != nil && slices.Contains(n.Keys, key)
}

// WarningKind classifies a non-fatal schema finding.
type WarningKind string

const (
	WarningUnknownExportKey            WarningKind = "UnknownExportKey"
	WarningMalformedLiteralExportValue WarningKind = "MalformedLiteralExportValue"
)

// Warning is a non-fatal schema finding.
type Warning struct {
	Kind    WarningKind
	Path    string
	Message string
}
