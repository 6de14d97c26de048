// Package exports enforces the package.json exports contract: primary export
// presence, key ordering and consistency, and on-disk existence of every
// referenced file.
package exports

import (
	"errors"
	"fmt"
	"slices"

	"github.com/fulmenhq/strapi-plugin/pkg/logger"
	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

// ErrOrderingViolation matches *OrderingViolation.
var ErrOrderingViolation = errors.New("export ordering violation")

// Rule identifies a hard ordering or consistency rule.
type Rule string

const (
	RuleTypesFirst              Rule = "types-first"
	RuleDefaultLast             Rule = "default-last"
	RuleNodeModuleBeforeImport  Rule = "node-module-before-node-import"
	RuleNodeBeforeImport        Rule = "node-before-import"
	RuleNodeBeforeModule        Rule = "node-before-module"
	RuleNodeBeforeRequire       Rule = "node-before-require"
	RuleNodeModuleMatchesImport Rule = "node-module-matches-import"
	RuleNodeRequireRedundant    Rule = "node-require-redundant"
	RuleLegacyMainModule        Rule = "legacy-main-module"
)

// OrderingViolation is a broken hard rule. ExportPath is empty for the legacy
// main/module rule.
type OrderingViolation struct {
	ExportPath string
	Rule       Rule
	Message    string
}

func (e *OrderingViolation) Error() string {
	return e.Message
}

func (e *OrderingViolation) Is(target error) bool {
	return target == ErrOrderingViolation
}

// Logger receives soft ordering warnings.
type Logger interface {
	Warn(message string, fields ...logger.Field)
}

// ValidateOrdering walks every object-valued export entry and applies the
// ordering rules in a fixed sequence: types first, then the node condition
// rules (or the top-level import/require/module rules when there is no node
// condition), then default last. The first hard violation aborts the whole
// check. Manifests without an exports map must declare main and module.
func ValidateOrdering(m *manifest.Manifest, log Logger) (*manifest.Manifest, error) {
	if m.Exports == nil {
		if !m.HasMain || !m.HasModule {
			return nil, &OrderingViolation{
				Rule:    RuleLegacyMainModule,
				Message: "'package.json' must contain a 'main' and 'module' property",
			}
		}
		return m, nil
	}

	for _, entry := range m.Exports.Entries() {
		if entry.IsLiteral() {
			continue
		}
		if err := checkEntry(entry.Path, entry.Export, log); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type entryChecker struct {
	path string
	log  Logger
}

func (c entryChecker) fail(rule Rule, text string) error {
	return &OrderingViolation{
		ExportPath: c.path,
		Rule:       rule,
		Message:    fmt.Sprintf("exports[%q]: %s", c.path, text),
	}
}

func (c entryChecker) warn(text string) {
	c.log.Warn(fmt.Sprintf("exports[%q]: %s", c.path, text), logger.String("export", c.path))
}

func checkEntry(path string, exp *manifest.Export, log Logger) error {
	c := entryChecker{path: path, log: log}
	keys := exp.Keys

	if !first("types", keys) {
		return c.fail(RuleTypesFirst, "the 'types' property should be the first property")
	}

	if node := exp.Node; node != nil {
		if err := c.checkNode(exp, node); err != nil {
			return err
		}
	} else {
		if !before("import", "require", keys) {
			c.warn("the 'import' property should come before the 'require' property")
		}
		if !before("module", "import", keys) {
			c.warn("the 'module' property should come before 'import' property")
		}
	}

	if !last("default", keys) {
		return c.fail(RuleDefaultLast, "the 'default' property should be the last property")
	}
	return nil
}

func (c entryChecker) checkNode(exp *manifest.Export, node *manifest.NodeExport) error {
	keys := exp.Keys

	if !before("module", "import", node.Keys) {
		return c.fail(RuleNodeModuleBeforeImport, "the 'node.module' property should come before the 'node.import' property")
	}
	if !before("import", "require", node.Keys) {
		c.warn("the 'node.import' property should come before the 'node.require' property")
	}
	if !before("module", "require", node.Keys) {
		c.warn("the 'node.module' property should come before 'node.require' property")
	}

	if exp.Import != "" && node.Import != "" && !before("node", "import", keys) {
		return c.fail(RuleNodeBeforeImport, "the 'node' property should come before the 'import' property")
	}
	if exp.Module != "" && node.Module != "" && !before("node", "module", keys) {
		return c.fail(RuleNodeBeforeModule, "the 'node' property should come before the 'module' property")
	}

	if node.Import != "" && (node.Require == "" || node.Require == exp.Require) && node.Module == "" {
		c.warn(fmt.Sprintf(
			"the 'node.module' property should be added so bundlers don't unintentionally try to bundle 'node.import'. Its value should be '\"module\": \"%s\"'",
			exp.Import,
		))
	}

	if node.Import != "" && node.Require == "" && node.Module != "" && exp.Import != "" && node.Module != exp.Import {
		return c.fail(RuleNodeModuleMatchesImport, "the 'node.module' property should match 'import'")
	}

	if exp.Require != "" && node.Require != "" {
		if exp.Require == node.Require {
			return c.fail(RuleNodeRequireRedundant, "the 'node.require' property isn't necessary as it's identical to 'require'")
		}
		if !before("node", "require", keys) {
			return c.fail(RuleNodeBeforeRequire, "the 'node' property should come before the 'require' property")
		}
	}
	return nil
}

// first reports whether key is absent or the first of keys.
func first(key string, keys []string) bool {
	i := slices.Index(keys, key)
	return i == -1 || i == 0
}

// last reports whether key is absent or the last of keys.
func last(key string, keys []string) bool {
	i := slices.Index(keys, key)
	return i == -1 || i == len(keys)-1
}

// before reports whether a precedes b, or either is absent.
func before(a, b string, keys []string) bool {
	ai, bi := slices.Index(keys, a), slices.Index(keys, b)
	if ai == -1 || bi == -1 {
		return true
	}
	return ai < bi
}
