package settings

// Memory is an in-process [Store]. Subscribers run synchronously on the
// goroutine that changed the value.
type Memory struct {
	table *table
}

var _ Store = (*Memory)(nil)

// NewMemory returns a [Memory] store holding default values.
func NewMemory() *Memory {
	return &Memory{table: newTable()}
}

func (m *Memory) Bool(key string) bool {
	v, _ := m.table.get(key).(bool)
	return v
}

func (m *Memory) SetBool(key string, value bool) error {
	return m.set(key, value)
}

func (m *Memory) Int(key string) int {
	v, _ := m.table.get(key).(int)
	return v
}

func (m *Memory) SetInt(key string, value int) error {
	return m.set(key, value)
}

func (m *Memory) String(key string) string {
	v, _ := m.table.get(key).(string)
	return v
}

func (m *Memory) SetString(key string, value string) error {
	return m.set(key, value)
}

func (m *Memory) Strings(key string) []string {
	v, _ := m.table.get(key).([]string)
	return v
}

func (m *Memory) SetStrings(key string, value []string) error {
	if value == nil {
		value = []string{}
	}

	return m.set(key, value)
}

func (m *Memory) Reset(key string) error {
	return m.set(key, Default(key))
}

func (m *Memory) Connect(key string, fn func(key string)) func() {
	return m.table.connect(key, fn)
}

func (m *Memory) set(key string, value any) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	changed, err := m.table.set(key, value)
	if err != nil {
		return err
	}

	if changed {
		m.table.notify(key)
	}

	return nil
}
