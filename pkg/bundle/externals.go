package bundle

import (
	"slices"
	"strings"

	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

// nodeBuiltins are always left unbundled, with or without the node: prefix.
var nodeBuiltins = []string{
	"assert", "buffer", "child_process", "cluster", "crypto", "dgram", "dns",
	"events", "fs", "http", "https", "net", "os", "path", "perf_hooks",
	"process", "querystring", "readline", "stream", "string_decoder",
	"timers", "tls", "tty", "url", "util", "v8", "vm", "worker_threads", "zlib",
}

// Externals lists the packages the bundler must not inline: dependencies and
// peerDependencies, sorted and de-duplicated. devDependencies are bundled.
func Externals(m *manifest.Manifest) []string {
	var out []string
	for name := range m.Dependencies {
		out = append(out, name)
	}
	for name := range m.PeerDependencies {
		out = append(out, name)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// IsExternal reports whether an import specifier resolves outside the bundle:
// a listed package or one of its subpaths, a node builtin, or a node: import.
func IsExternal(specifier string, externals []string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return true
	}
	for _, list := range [][]string{nodeBuiltins, externals} {
		for _, name := range list {
			if specifier == name || strings.HasPrefix(specifier, name+"/") {
				return true
			}
		}
	}
	return false
}
