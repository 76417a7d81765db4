package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr bool
	}{
		{"auto-hide lower bound", KeyAutoHideDuration, 1, false},
		{"auto-hide zero", KeyAutoHideDuration, 0, true},
		{"animation zero", KeyAnimationDuration, 0, false},
		{"animation too long", KeyAnimationDuration, 5000, true},
		{"hover duration", KeyHoverDuration, 61, true},
		{"click mode", KeyInteractionMode, ModeClick, false},
		{"hover mode", KeyInteractionMode, ModeHover, false},
		{"unknown mode", KeyInteractionMode, "scroll", true},
		{"logging level", KeyLoggingLevel, "debug", false},
		{"bad logging level", KeyLoggingLevel, "verbose", true},
		{"items", KeyVisibleItems, []string{"A", "B"}, false},
		{"duplicate items", KeyAllItems, []string{"A", "B", "A"}, true},
		{"wrong kind", KeySaveState, "yes", true},
		{"unknown key", "unknown", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAllJoinsErrors(t *testing.T) {
	values := DocumentFromValues(nil).Values()
	values[KeyAutoHideDuration] = 0
	values[KeyInteractionMode] = "scroll"

	err := ValidateAll(values)

	assert.ErrorContains(t, err, KeyAutoHideDuration)
	assert.ErrorContains(t, err, KeyInteractionMode)
}

func TestDefaultDocumentIsValid(t *testing.T) {
	assert.NoError(t, ValidateAll(DocumentFromValues(nil).Values()))
}
