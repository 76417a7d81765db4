package settings

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Document is the on-disk layout of the settings file.
type Document struct {
	SaveState         bool     `toml:"save-state" mapstructure:"save-state" json:"save-state" jsonschema:"description=Restore the shown/hidden state across restarts"`
	SavedVisibility   bool     `toml:"saved-visibility" mapstructure:"saved-visibility" json:"saved-visibility" jsonschema:"description=Shown/hidden state saved when save-state is enabled"`
	DefaultVisibility bool     `toml:"default-visibility" mapstructure:"default-visibility" json:"default-visibility" jsonschema:"description=Whether items are shown on startup when save-state is disabled"`
	VisibleItems      []string `toml:"visible-items" mapstructure:"visible-items" json:"visible-items" jsonschema:"description=Items that stay visible while the others are hidden,uniqueItems=true"`
	AllItems          []string `toml:"all-items" mapstructure:"all-items" json:"all-items" jsonschema:"description=Names of the items currently managed (written by the daemon)"`
	AutoHideEnabled   bool     `toml:"auto-hide-enabled" mapstructure:"auto-hide-enabled" json:"auto-hide-enabled" jsonschema:"description=Hide items again after auto-hide-duration"`
	AutoHideDuration  int      `toml:"auto-hide-duration" mapstructure:"auto-hide-duration" json:"auto-hide-duration" jsonschema:"description=Seconds before items are hidden again,minimum=1,maximum=3600"`
	AnimationEnabled  bool     `toml:"animation-enabled" mapstructure:"animation-enabled" json:"animation-enabled" jsonschema:"description=Animate showing and hiding items"`
	AnimationDuration int      `toml:"animation-duration" mapstructure:"animation-duration" json:"animation-duration" jsonschema:"description=Animation duration in milliseconds,minimum=0,maximum=2000"`
	InteractionMode   string   `toml:"interaction-mode" mapstructure:"interaction-mode" json:"interaction-mode" jsonschema:"description=How the indicator reveals items,enum=click,enum=hover"`
	HoverHideOnLeave  bool     `toml:"hover-hide-on-leave" mapstructure:"hover-hide-on-leave" json:"hover-hide-on-leave" jsonschema:"description=In hover mode hide items as soon as the pointer leaves"`
	HoverDuration     int      `toml:"hover-duration" mapstructure:"hover-duration" json:"hover-duration" jsonschema:"description=In hover mode seconds to keep items after the pointer leaves,minimum=1,maximum=60"`
	LoggingLevel      string   `toml:"logging-level" mapstructure:"logging-level" json:"logging-level" jsonschema:"description=Daemon log level,enum=error,enum=warn,enum=info,enum=debug"`
	CustomOpenIcon    string   `toml:"custom-open-icon" mapstructure:"custom-open-icon" json:"custom-open-icon" jsonschema:"description=Icon shown while items are hidden"`
	CustomCloseIcon   string   `toml:"custom-close-icon" mapstructure:"custom-close-icon" json:"custom-close-icon" jsonschema:"description=Icon shown while items are visible"`
}

// DocumentFromValues builds a [Document] from a key/value map. Missing keys
// take their default value.
func DocumentFromValues(values map[string]any) Document {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return Default(key).(string)
	}
	boolean := func(key string) bool {
		if v, ok := values[key].(bool); ok {
			return v
		}
		return Default(key).(bool)
	}
	integer := func(key string) int {
		if v, ok := values[key].(int); ok {
			return v
		}
		return Default(key).(int)
	}
	list := func(key string) []string {
		if v, ok := values[key].([]string); ok {
			return append([]string{}, v...)
		}
		return Default(key).([]string)
	}

	return Document{
		SaveState:         boolean(KeySaveState),
		SavedVisibility:   boolean(KeySavedVisibility),
		DefaultVisibility: boolean(KeyDefaultVisibility),
		VisibleItems:      list(KeyVisibleItems),
		AllItems:          list(KeyAllItems),
		AutoHideEnabled:   boolean(KeyAutoHideEnabled),
		AutoHideDuration:  integer(KeyAutoHideDuration),
		AnimationEnabled:  boolean(KeyAnimationEnabled),
		AnimationDuration: integer(KeyAnimationDuration),
		InteractionMode:   str(KeyInteractionMode),
		HoverHideOnLeave:  boolean(KeyHoverHideOnLeave),
		HoverDuration:     integer(KeyHoverDuration),
		LoggingLevel:      str(KeyLoggingLevel),
		CustomOpenIcon:    str(KeyCustomOpenIcon),
		CustomCloseIcon:   str(KeyCustomCloseIcon),
	}
}

// Values returns the document as a key/value map.
func (d Document) Values() map[string]any {
	visible := d.VisibleItems
	if visible == nil {
		visible = []string{}
	}

	all := d.AllItems
	if all == nil {
		all = []string{}
	}

	return map[string]any{
		KeySaveState:         d.SaveState,
		KeySavedVisibility:   d.SavedVisibility,
		KeyDefaultVisibility: d.DefaultVisibility,
		KeyVisibleItems:      visible,
		KeyAllItems:          all,
		KeyAutoHideEnabled:   d.AutoHideEnabled,
		KeyAutoHideDuration:  d.AutoHideDuration,
		KeyAnimationEnabled:  d.AnimationEnabled,
		KeyAnimationDuration: d.AnimationDuration,
		KeyInteractionMode:   d.InteractionMode,
		KeyHoverHideOnLeave:  d.HoverHideOnLeave,
		KeyHoverDuration:     d.HoverDuration,
		KeyLoggingLevel:      d.LoggingLevel,
		KeyCustomOpenIcon:    d.CustomOpenIcon,
		KeyCustomCloseIcon:   d.CustomCloseIcon,
	}
}

// Schema returns the JSON schema of the settings file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	s := reflector.Reflect(&Document{})
	s.Title = "veil settings"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	return data, nil
}
