package settings

import (
	"errors"
	"fmt"
	"slices"
)

var loggingLevels = []string{"error", "warn", "info", "debug"}

// Validate checks value against the type and range of key.
func Validate(key string, value any) error {
	if err := checkKind(key, value); err != nil {
		return err
	}

	switch key {
	case KeyAutoHideDuration:
		return checkRange(key, value.(int), 1, 3600)
	case KeyAnimationDuration:
		return checkRange(key, value.(int), 0, 2000)
	case KeyHoverDuration:
		return checkRange(key, value.(int), 1, 60)
	case KeyInteractionMode:
		mode := value.(string)
		if mode != ModeClick && mode != ModeHover {
			return fmt.Errorf("%s: must be %q or %q, got %q", key, ModeClick, ModeHover, mode)
		}
	case KeyLoggingLevel:
		level := value.(string)
		if !slices.Contains(loggingLevels, level) {
			return fmt.Errorf("%s: must be one of %v, got %q", key, loggingLevels, level)
		}
	case KeyVisibleItems, KeyAllItems:
		items := value.([]string)
		for idx, item := range items {
			if slices.Contains(items[:idx], item) {
				return fmt.Errorf("%s: duplicate item %q", key, item)
			}
		}
	}

	return nil
}

// ValidateAll validates every value and joins the errors.
func ValidateAll(values map[string]any) error {
	var errs []error

	for _, key := range sortedKeys(values) {
		if err := Validate(key, values[key]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func checkRange(key string, value, lower, upper int) error {
	if value < lower || value > upper {
		return fmt.Errorf("%s: must be between %d and %d, got %d", key, lower, upper, value)
	}

	return nil
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}
