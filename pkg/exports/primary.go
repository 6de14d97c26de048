package exports

import (
	"errors"

	"github.com/fulmenhq/strapi-plugin/pkg/manifest"
)

// Primary export paths. A plugin must declare at least one of them.
const (
	AdminExport  = "./strapi-admin"
	ServerExport = "./strapi-server"
)

// ErrMissingPrimaryExport matches *MissingPrimaryExportError.
var ErrMissingPrimaryExport = errors.New("missing primary export")

// MissingPrimaryExportError is returned when neither primary export is
// declared. Verify and bundle-plan derivation share it so both surfaces fail
// with the same message.
type MissingPrimaryExportError struct{}

func (e *MissingPrimaryExportError) Error() string {
	return "You need to have either a strapi-admin or strapi-server export in your package.json"
}

func (e *MissingPrimaryExportError) Is(target error) bool {
	return target == ErrMissingPrimaryExport
}

// RequirePrimaryExport fails unless the manifest declares the admin or the
// server export.
func RequirePrimaryExport(m *manifest.Manifest) error {
	if m == nil || m.Exports == nil {
		return &MissingPrimaryExportError{}
	}
	if _, ok := m.Exports.Get(AdminExport); ok {
		return nil
	}
	if _, ok := m.Exports.Get(ServerExport); ok {
		return nil
	}
	return &MissingPrimaryExportError{}
}
