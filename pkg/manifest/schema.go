package manifest

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/fulmenhq/strapi-plugin/pkg/logger"
)

// literalExportPattern is the only shape expected for string-valued
// exports, e.g. "./package.json".
var literalExportPattern = regexp.MustCompile(`^\./.*\.json$`)

// Recognized keys of an export entry and its conditions.
var (
	ExportKeys  = []string{"types", "source", "module", "import", "require", "default", "browser", "node"}
	BrowserKeys = []string{"source", "import", "require"}
	NodeKeys    = []string{"source", "module", "import", "require"}
)

// Validate checks a decoded package.json against the manifest shape. It
// returns the first *SchemaViolation found; unknown export keys and
// unexpected literal export values are logged and recorded as warnings.
func Validate(raw *Object, log Logger) (*Manifest, error) {
	v := &validator{log: log}
	m, err := v.manifest(raw)
	if err != nil {
		return nil, err
	}
	m.Warnings = v.warnings
	return m, nil
}

type validator struct {
	log      Logger
	warnings []Warning
}

func (v *validator) warn(kind WarningKind, path, message string) {
	v.warnings = append(v.warnings, Warning{Kind: kind, Path: path, Message: message})
	v.log.Warn(message, logger.String("path", path))
}

func (v *validator) manifest(raw *Object) (*Manifest, error) {
	if raw == nil {
		return nil, &SchemaViolation{Kind: ViolationType, Path: "", Expected: "object", Actual: "null"}
	}

	m := &Manifest{}

	name, err := requiredString(raw, "name", "name")
	if err != nil {
		return nil, err
	}
	m.Name = name

	if typ, ok, err := optionalString(raw, "type", "type"); err != nil {
		return nil, err
	} else if ok {
		switch ModuleType(typ) {
		case ModuleTypeCommonJS, ModuleTypeModule:
			m.Type = ModuleType(typ)
		default:
			return nil, &SchemaViolation{Kind: ViolationValue, Path: "type", Expected: "'commonjs', 'module'", Actual: typ}
		}
	}

	if m.Main, m.HasMain, err = optionalString(raw, "main", "main"); err != nil {
		return nil, err
	}
	if m.Module, m.HasModule, err = optionalString(raw, "module", "module"); err != nil {
		return nil, err
	}

	for _, dep := range []struct {
		key string
		dst *map[string]string
	}{
		{"dependencies", &m.Dependencies},
		{"devDependencies", &m.DevDependencies},
		{"peerDependencies", &m.PeerDependencies},
	} {
		deps, err := stringMap(raw, dep.key)
		if err != nil {
			return nil, err
		}
		*dep.dst = deps
	}

	if raw.Has("exports") {
		exports, err := v.exportMap(raw)
		if err != nil {
			return nil, err
		}
		m.Exports = exports
	}

	return m, nil
}

func (v *validator) exportMap(raw *Object) (*ExportMap, error) {
	value, _ := raw.Get("exports")
	obj, ok := value.(*Object)
	if !ok {
		return nil, typeViolation("exports", "object", value)
	}

	entries := make([]ExportMapEntry, 0, obj.Len())
	for _, path := range obj.Keys() {
		value, _ := obj.Get(path)
		fieldPath := exportPath(path)

		switch val := value.(type) {
		case string:
			if val == "" {
				return nil, &SchemaViolation{Kind: ViolationRequired, Path: fieldPath, Expected: "string"}
			}
			if !literalExportPattern.MatchString(val) {
				v.warn(WarningMalformedLiteralExportValue, fieldPath,
					fmt.Sprintf("Warning: Value %q does not match the required regex %s", val, literalExportPattern))
			}
			entries = append(entries, ExportMapEntry{Path: path, Literal: val})
		case *Object:
			exp, err := v.export(val, fieldPath)
			if err != nil {
				return nil, err
			}
			entries = append(entries, ExportMapEntry{Path: path, Export: exp})
		default:
			return nil, typeViolation(fieldPath, "object", value)
		}
	}
	return NewExportMap(entries...), nil
}

func (v *validator) export(obj *Object, path string) (*Export, error) {
	exp := &Export{Keys: obj.Keys()}
	v.unknownKeys(obj, path, ExportKeys)

	var err error
	if exp.Source, err = requiredString(obj, "source", path+".source"); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"types", &exp.Types},
		{"module", &exp.Module},
		{"import", &exp.Import},
		{"require", &exp.Require},
		{"default", &exp.Default},
	} {
		if *f.dst, _, err = optionalString(obj, f.key, path+"."+f.key); err != nil {
			return nil, err
		}
	}

	if sub, ok, err := optionalObject(obj, "browser", path+".browser"); err != nil {
		return nil, err
	} else if ok {
		b := &BrowserExport{Keys: sub.Keys()}
		v.unknownKeys(sub, path+".browser", BrowserKeys)
		for _, f := range []struct {
			key string
			dst *string
		}{
			{"source", &b.Source},
			{"import", &b.Import},
			{"require", &b.Require},
		} {
			if *f.dst, _, err = optionalString(sub, f.key, path+".browser."+f.key); err != nil {
				return nil, err
			}
		}
		exp.Browser = b
	}

	if sub, ok, err := optionalObject(obj, "node", path+".node"); err != nil {
		return nil, err
	} else if ok {
		n := &NodeExport{Keys: sub.Keys()}
		v.unknownKeys(sub, path+".node", NodeKeys)
		for _, f := range []struct {
			key string
			dst *string
		}{
			{"source", &n.Source},
			{"module", &n.Module},
			{"import", &n.Import},
			{"require", &n.Require},
		} {
			if *f.dst, _, err = optionalString(sub, f.key, path+".node."+f.key); err != nil {
				return nil, err
			}
		}
		exp.Node = n
	}

	return exp, nil
}

func (v *validator) unknownKeys(obj *Object, path string, known []string) {
	var unknown []string
	for _, k := range obj.Keys() {
		if !slices.Contains(known, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		v.warn(WarningUnknownExportKey, path,
			"Warning: Unknown keys in exports: "+strings.Join(unknown, ", "))
	}
}

// exportPath formats an export path the way violations name it, e.g.
// exports["./strapi-admin"].
func exportPath(path string) string {
	return fmt.Sprintf("exports[%q]", path)
}

func requiredString(obj *Object, key, path string) (string, error) {
	value, ok := obj.Get(key)
	if !ok || value == nil {
		return "", &SchemaViolation{Kind: ViolationRequired, Path: path, Expected: "string"}
	}
	s, isString := value.(string)
	if !isString {
		return "", typeViolation(path, "string", value)
	}
	if s == "" {
		return "", &SchemaViolation{Kind: ViolationRequired, Path: path, Expected: "string"}
	}
	return s, nil
}

func optionalString(obj *Object, key, path string) (string, bool, error) {
	value, ok := obj.Get(key)
	if !ok {
		return "", false, nil
	}
	s, isString := value.(string)
	if !isString {
		return "", false, typeViolation(path, "string", value)
	}
	return s, true, nil
}

func optionalObject(obj *Object, key, path string) (*Object, bool, error) {
	value, ok := obj.Get(key)
	if !ok {
		return nil, false, nil
	}
	sub, isObject := value.(*Object)
	if !isObject {
		return nil, false, typeViolation(path, "object", value)
	}
	return sub, true, nil
}

func stringMap(obj *Object, key string) (map[string]string, error) {
	value, ok := obj.Get(key)
	if !ok {
		return nil, nil
	}
	sub, isObject := value.(*Object)
	if !isObject {
		return nil, typeViolation(key, "object", value)
	}
	out := make(map[string]string, sub.Len())
	for _, name := range sub.Keys() {
		raw, _ := sub.Get(name)
		s, isString := raw.(string)
		if !isString {
			return nil, typeViolation(fmt.Sprintf("%s[%q]", key, name), "string", raw)
		}
		out[name] = s
	}
	return out, nil
}

func typeViolation(path, expected string, value any) *SchemaViolation {
	return &SchemaViolation{Kind: ViolationType, Path: path, Expected: expected, Actual: TypeName(value)}
}
