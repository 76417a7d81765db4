// Package settings is the configuration store shared by every veil
// component: typed get/set of a small set of keys plus per-key change
// notifications.
//
// Two implementations are provided: [Memory], an in-process store, and
// [File], a TOML file managed with viper and watched for external edits.
package settings

// Keys of the settings store.
const (
	KeySaveState         = "save-state"
	KeySavedVisibility   = "saved-visibility"
	KeyDefaultVisibility = "default-visibility"
	KeyVisibleItems      = "visible-items"
	KeyAllItems          = "all-items"
	KeyAutoHideEnabled   = "auto-hide-enabled"
	KeyAutoHideDuration  = "auto-hide-duration"
	KeyAnimationEnabled  = "animation-enabled"
	KeyAnimationDuration = "animation-duration"
	KeyInteractionMode   = "interaction-mode"
	KeyHoverHideOnLeave  = "hover-hide-on-leave"
	KeyHoverDuration     = "hover-duration"
	KeyLoggingLevel      = "logging-level"
	KeyCustomOpenIcon    = "custom-open-icon"
	KeyCustomCloseIcon   = "custom-close-icon"
)

// Interaction modes stored under [KeyInteractionMode].
const (
	ModeClick = "click"
	ModeHover = "hover"
)

// Kind is the value type of a key.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindString
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindStrings:
		return "string array"
	default:
		return "unknown"
	}
}

type keySpec struct {
	kind     Kind
	fallback any
}

var schema = map[string]keySpec{
	KeySaveState:         {KindBool, false},
	KeySavedVisibility:   {KindBool, false},
	KeyDefaultVisibility: {KindBool, false},
	KeyVisibleItems:      {KindStrings, []string{}},
	KeyAllItems:          {KindStrings, []string{}},
	KeyAutoHideEnabled:   {KindBool, false},
	KeyAutoHideDuration:  {KindInt, 5},
	KeyAnimationEnabled:  {KindBool, true},
	KeyAnimationDuration: {KindInt, 250},
	KeyInteractionMode:   {KindString, ModeClick},
	KeyHoverHideOnLeave:  {KindBool, true},
	KeyHoverDuration:     {KindInt, 2},
	KeyLoggingLevel:      {KindString, "info"},
	KeyCustomOpenIcon:    {KindString, ""},
	KeyCustomCloseIcon:   {KindString, ""},
}

// Keys returns every known key.
func Keys() []string {
	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}

	return keys
}

// KindOf returns the kind of key, and false if key is unknown.
func KindOf(key string) (Kind, bool) {
	spec, ok := schema[key]
	return spec.kind, ok
}

// Default returns the default value of key, or nil if key is unknown.
func Default(key string) any {
	spec, ok := schema[key]
	if !ok {
		return nil
	}

	if items, ok := spec.fallback.([]string); ok {
		return append([]string{}, items...)
	}

	return spec.fallback
}
