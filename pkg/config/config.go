// Package config loads strapi-plugin settings from defaults, a project config
// file and STRAPI_PLUGIN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every config read or validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix namespaces environment overrides, e.g. STRAPI_PLUGIN_BUILD_MINIFY.
const EnvPrefix = "STRAPI_PLUGIN"

// ProjectConfigFiles are searched in the plugin root in this order.
var ProjectConfigFiles = []string{
	".strapi-plugin.yaml",
	".strapi-plugin.yml",
	".strapi-plugin.json",
	"strapi-plugin.yaml",
	"strapi-plugin.yml",
	"strapi-plugin.json",
}

// Config holds all strapi-plugin settings
type Config struct {
	Build  BuildConfig  `mapstructure:"build"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Verify VerifyConfig `mapstructure:"verify"`

	// File is the project config file that was read, if any.
	File string `mapstructure:"-"`
}

// BuildConfig tunes the bundler
type BuildConfig struct {
	AdminTarget  string `mapstructure:"admin_target"`
	ServerTarget string `mapstructure:"server_target"`
	Declarations bool   `mapstructure:"declarations"`
	TSC          string `mapstructure:"tsc"`
	Sourcemap    bool   `mapstructure:"sourcemap"`
	Minify       bool   `mapstructure:"minify"`
}

// WatchConfig tunes watch mode
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Ignore   []string      `mapstructure:"ignore"`
}

// VerifyConfig tunes verify
type VerifyConfig struct {
	// Concurrency bounds parallel file checks; 0 means GOMAXPROCS.
	Concurrency int `mapstructure:"concurrency"`
}

var defaultConfig = Config{
	Build: BuildConfig{
		AdminTarget:  "es2020",
		ServerTarget: "node20",
		Declarations: true,
		TSC:          "tsc",
	},
	Watch: WatchConfig{
		Debounce: 300 * time.Millisecond,
		Ignore:   []string{},
	},
}

// Load reads configuration for the plugin rooted at dir.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("build.admin_target", defaultConfig.Build.AdminTarget)
	v.SetDefault("build.server_target", defaultConfig.Build.ServerTarget)
	v.SetDefault("build.declarations", defaultConfig.Build.Declarations)
	v.SetDefault("build.tsc", defaultConfig.Build.TSC)
	v.SetDefault("build.sourcemap", defaultConfig.Build.Sourcemap)
	v.SetDefault("build.minify", defaultConfig.Build.Minify)
	v.SetDefault("watch.debounce", defaultConfig.Watch.Debounce)
	v.SetDefault("watch.ignore", defaultConfig.Watch.Ignore)
	v.SetDefault("verify.concurrency", defaultConfig.Verify.Concurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file, ok := FindProjectConfig(dir)
	if ok {
		// #nosec G304 -- file is one of the fixed project config names inside dir
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, file, err)
		}
		if err := ValidateConfig(data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(file), err)
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(file), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if ok {
		config.File = file
	}
	return &config, nil
}

// FindProjectConfig returns the first project config file present in dir.
func FindProjectConfig(dir string) (string, bool) {
	for _, name := range ProjectConfigFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
