package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Output formats accepted by the CLI
var validOutputs = []string{"text", "json", "yaml", "csv"}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every problem found in a configuration
type ValidationErrors struct {
	Errors []ValidationError
}

// Add records a validation error
func (ve *ValidationErrors) Add(path, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Path: path, Message: message})
}

// HasErrors reports whether any error was recorded
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Error joins all messages
func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.Errors))
	for _, err := range ve.Errors {
		msgs = append(msgs, err.Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) *ValidationErrors {
	errs := &ValidationErrors{}

	if config.Endpoint != "" {
		u, err := url.Parse(config.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("endpoint", fmt.Sprintf("invalid URL: %s", config.Endpoint))
		}
	}

	if (config.Username == "") != (config.Secret == "") {
		errs.Add("secret", "username and secret must be given together")
	}

	if config.Interval < 0 {
		errs.Add("interval", "must not be negative")
	}
	if config.MaxWait < 0 {
		errs.Add("maxWait", "must not be negative")
	}
	if config.Timeout < 0 {
		errs.Add("timeout", "must not be negative")
	}

	if config.RateLimit < 0 {
		errs.Add("rateLimit", "must not be negative")
	}

	if config.Output != "" && !stringInSlice(config.Output, validOutputs) {
		errs.Add("output", fmt.Sprintf("invalid output format '%s', must be one of: %s",
			config.Output, strings.Join(validOutputs, ", ")))
	}

	return errs
}

// stringInSlice checks if a string is in a slice
func stringInSlice(str string, slice []string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
