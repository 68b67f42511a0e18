package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyMarker indicates a missing instruction or region sentinel
	ErrEmptyMarker = errors.New("empty marker")

	// ErrInvalidBudget indicates negative budget limits
	ErrInvalidBudget = errors.New("invalid budget")

	// ErrInvalidExtension indicates an extension without a leading dot
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrNoExtensions indicates nothing would be scanned
	ErrNoExtensions = errors.New("no source extensions")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateMarker(&cfg.Marker); err != nil {
		errs = append(errs, err)
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateBudget(&cfg.Budget); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateMarker(cfg *MarkerConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Instruction) == "" {
		errs = append(errs, fmt.Errorf("%w: instruction marker is required", ErrEmptyMarker))
	}

	for _, m := range cfg.RegionOpen {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("%w: region_open entries cannot be blank", ErrEmptyMarker))
			break
		}
	}

	for _, m := range cfg.RegionClose {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("%w: region_close entries cannot be blank", ErrEmptyMarker))
			break
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	if len(cfg.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one extension required", ErrNoExtensions))
	}

	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%w: %q must start with a dot", ErrInvalidExtension, ext))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateBudget(cfg *BudgetConfig) error {
	var errs []error

	// Zero means unbounded, negative is a mistake
	if cfg.Limit < 0 {
		errs = append(errs, fmt.Errorf("%w: limit cannot be negative, got %d", ErrInvalidBudget, cfg.Limit))
	}

	if cfg.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: warn_threshold cannot be negative, got %d", ErrInvalidBudget, cfg.WarnThreshold))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Sentinels stay reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{
		msg:  fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")),
		errs: errs,
	}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
