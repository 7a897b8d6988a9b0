package config

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/typelink/internal/errors"
)

var (
	// ErrEmptyInclude indicates no source patterns are configured
	ErrEmptyInclude = errors.New("empty include patterns")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrEmptyAttribute indicates a missing selection attribute
	ErrEmptyAttribute = errors.New("empty selection attribute")

	// ErrInvalidCacheSize indicates a negative cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")
)

// Validate checks that the configuration is valid and complete.
// Every violation is reported, not just the first.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validatePaths(&cfg.Paths)...)
	errs = append(errs, validateSelect(&cfg.Select)...)
	errs = append(errs, validateAnalysis(&cfg.Analysis)...)

	return joinErrors(errs)
}

func validatePaths(cfg *PathsConfig) []error {
	var errs []error

	if len(cfg.Include) == 0 {
		errs = append(errs, errors.Wrap(ErrEmptyInclude, "paths.include needs at least one pattern"))
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if err := checkBraces(pattern); err != nil {
			errs = append(errs, errors.Wrapf(ErrInvalidPattern, "%q: %v", pattern, err))
			continue
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, errors.Wrapf(ErrInvalidPattern, "%q: %v", pattern, err))
		}
	}
	return errs
}

// checkBraces rejects unbalanced alternation braces. gobwas/glob accepts an
// unclosed "{a,b" and silently treats it as closed.
func checkBraces(pattern string) error {
	depth := 0
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth < 0 {
				return errors.New("unexpected '}'")
			}
		}
	}
	if depth > 0 {
		return errors.New("unclosed '{'")
	}
	return nil
}

func validateSelect(cfg *SelectConfig) []error {
	if strings.TrimSpace(cfg.Attribute) == "" && !cfg.All {
		return []error{errors.WithHint(
			errors.Wrap(ErrEmptyAttribute, "select.attribute is required"),
			"set select.attribute or enable select.all",
		)}
	}
	return nil
}

func validateAnalysis(cfg *AnalysisConfig) []error {
	if cfg.CacheSize < 0 {
		return []error{errors.Wrapf(ErrInvalidCacheSize, "cache_size cannot be negative, got %d", cfg.CacheSize)}
	}
	return nil
}

// joinErrors combines multiple errors into one that still matches every
// sentinel through errors.Is.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.Wrap(errors.Join(errs...), "validation failed")
}
