package error

import (
	"fmt"
	"net/http"
)

// ConfigError groups every missing or invalid setting found while booting a component.
// Err is usually an ozzo validation.Errors map so that all problems are reported at once.
type ConfigError struct {
	Component string
	Err       error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %v", err.Component, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

func (err *ConfigError) ErrCode() string {
	return "CONFIG_ERROR"
}

func (err *ConfigError) StatusCode() int {
	return http.StatusInternalServerError
}
