// Package exitcode provides standardized exit codes for strapi-plugin
package exitcode

// Exit codes for strapi-plugin CLI
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	ValidationError   = 3
	ManifestNotFound  = 4
	Interrupted       = 5
	PermissionError   = 6
	TimeoutError      = 7
	UnsupportedFormat = 8
	ToolNotFound      = 9
	BuildError        = 10
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case ManifestNotFound:
		return "Manifest not found"
	case Interrupted:
		return "Interrupted"
	case PermissionError:
		return "Permission error"
	case TimeoutError:
		return "Timeout error"
	case UnsupportedFormat:
		return "Unsupported format"
	case ToolNotFound:
		return "Tool not found"
	case BuildError:
		return "Build error"
	default:
		return "Unknown error"
	}
}
