package bundle

import (
	"path/filepath"

	"github.com/fulmenhq/strapi-plugin/pkg/safeio"
)

// LegacyConfigFiles are the retired bundler config files, in lookup order.
var LegacyConfigFiles = []string{"packup.config.ts", "packup.config.js", "packup.config.mjs"}

// LegacyConfigFile returns the first legacy config file present in dir.
func LegacyConfigFile(dir string) (string, bool) {
	for _, name := range LegacyConfigFiles {
		if safeio.PathExists(filepath.Join(dir, name)) {
			return name, true
		}
	}
	return "", false
}

// LegacyConfigWarning is logged when a legacy config file is found.
func LegacyConfigWarning(name string) string {
	return "Found " + name + " but it will be ignored. " +
		"Configuration is now derived from package.json exports. " +
		"You can safely delete this file."
}
