package teamconfig

import "fmt"

const (
	configErrorTemplateConstant          = "invalid team configuration: %s"
	configErrorWithCauseTemplateConstant = "invalid team configuration: %s: %s"
)

// ConfigError reports a malformed configuration document. It is always fatal
// and never triggers a cascade to another source.
type ConfigError struct {
	Detail string
	Cause  error
}

// Error describes the malformed document.
func (configurationError ConfigError) Error() string {
	if configurationError.Cause == nil {
		return fmt.Sprintf(configErrorTemplateConstant, configurationError.Detail)
	}
	return fmt.Sprintf(configErrorWithCauseTemplateConstant, configurationError.Detail, configurationError.Cause)
}

// Unwrap exposes the underlying cause.
func (configurationError ConfigError) Unwrap() error {
	return configurationError.Cause
}
