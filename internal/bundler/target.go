package bundler

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var esTargets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var engines = map[string]api.EngineName{
	"node":    api.EngineNode,
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"safari":  api.EngineSafari,
}

// Target is a parsed target list such as "es2020" or "node20,chrome110".
type Target struct {
	Language api.Target
	Engines  []api.Engine
}

// ParseTarget accepts a comma-separated list of one ES level and any number
// of engine versions.
func ParseTarget(s string) (Target, error) {
	t := Target{Language: api.ESNext}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if lang, ok := esTargets[part]; ok {
			t.Language = lang
			continue
		}
		name, version := splitEngine(part)
		engine, ok := engines[name]
		if !ok || version == "" {
			return Target{}, fmt.Errorf("unsupported build target %q", part)
		}
		t.Engines = append(t.Engines, api.Engine{Name: engine, Version: version})
	}
	return t, nil
}

// splitEngine splits "node20.3" into "node" and "20.3".
func splitEngine(s string) (string, string) {
	i := strings.IndexAny(s, "0123456789")
	if i <= 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
