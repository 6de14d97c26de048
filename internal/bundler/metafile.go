package bundler

import (
	"encoding/json"
	"slices"
)

// Metafile is the esbuild metafile JSON structure.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one source file read by the build.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport is one import edge.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is one emitted file.
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is how much of an input ended up in an output.
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// ParseMetafile decodes the metafile string esbuild returns.
func ParseMetafile(data string) (*Metafile, error) {
	var m Metafile
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Summary condenses a metafile for debug logging.
type Summary struct {
	Inputs     int
	OutputSize int
	// Externals are the import paths left unbundled, sorted.
	Externals []string
}

// Summarize counts inputs, totals output bytes and collects external imports.
func (m *Metafile) Summarize() Summary {
	s := Summary{Inputs: len(m.Inputs)}
	seen := make(map[string]bool)
	for _, out := range m.Outputs {
		s.OutputSize += out.Bytes
		for _, imp := range out.Imports {
			if imp.External && !seen[imp.Path] {
				seen[imp.Path] = true
				s.Externals = append(s.Externals, imp.Path)
			}
		}
	}
	slices.Sort(s.Externals)
	return s
}
