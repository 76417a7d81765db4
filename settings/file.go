package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileOptions configures [OpenFile].
type FileOptions struct {
	// Post dispatches change notifications caused by external edits, usually
	// onto the main loop. Notifications run on the watcher goroutine when
	// Post is nil.
	Post func(func())

	// Logger receives reload and watch diagnostics.
	Logger zerolog.Logger
}

// File is a [Store] persisted as a TOML file.
//
// The file is read with viper, so every key can be overridden from the
// environment with the VEIL_ prefix (e.g. VEIL_ANIMATION_ENABLED=false).
// Writes replace the file atomically. [File.Watch] reloads the file on
// external edits and notifies subscribers of every changed key.
type File struct {
	path  string
	viper *viper.Viper
	table *table
	post  func(func())
	log   zerolog.Logger

	mu          sync.Mutex
	lastWritten []byte
	watcher     *fsnotify.Watcher
	closed      bool
}

var _ Store = (*File)(nil)

// OpenFile loads the settings file at path, creating it with default values
// if it does not exist.
func OpenFile(path string, opts FileOptions) (*File, error) {
	path = filepath.Clean(path)

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("VEIL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range Keys() {
		v.SetDefault(key, Default(key))
	}

	f := &File{
		path:  path,
		viper: v,
		table: newTable(),
		post:  opts.Post,
		log:   opts.Logger.With().Str("component", "settings").Logger(),
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		f.mu.Lock()
		err := f.write()
		f.mu.Unlock()

		if err != nil {
			return nil, fmt.Errorf("open settings: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	values, err := f.decode(data)
	if err != nil {
		return nil, fmt.Errorf("open settings %s: %w", path, err)
	}

	for key, value := range values {
		if _, err := f.table.set(key, value); err != nil {
			return nil, fmt.Errorf("open settings %s: %w", path, err)
		}
	}

	return f, nil
}

// Path returns the path of the settings file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Bool(key string) bool {
	v, _ := f.table.get(key).(bool)
	return v
}

func (f *File) SetBool(key string, value bool) error {
	return f.set(key, value)
}

func (f *File) Int(key string) int {
	v, _ := f.table.get(key).(int)
	return v
}

func (f *File) SetInt(key string, value int) error {
	return f.set(key, value)
}

func (f *File) String(key string) string {
	v, _ := f.table.get(key).(string)
	return v
}

func (f *File) SetString(key string, value string) error {
	return f.set(key, value)
}

func (f *File) Strings(key string) []string {
	v, _ := f.table.get(key).([]string)
	return v
}

func (f *File) SetStrings(key string, value []string) error {
	if value == nil {
		value = []string{}
	}

	return f.set(key, value)
}

func (f *File) Reset(key string) error {
	return f.set(key, Default(key))
}

func (f *File) Connect(key string, fn func(key string)) func() {
	return f.table.connect(key, fn)
}

// Watch starts reloading the file whenever it changes on disk.
func (f *File) Watch() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("watch: settings are closed")
	}

	if f.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	// Watch the directory: atomic replacement swaps the inode of the file.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	f.watcher = watcher
	go f.watch(watcher)

	return nil
}

// Close stops watching the file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	if f.watcher == nil {
		return nil
	}

	err := f.watcher.Close()
	f.watcher = nil

	return err
}

func (f *File) set(key string, value any) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	f.mu.Lock()
	changed, err := f.table.set(key, value)
	if err == nil && changed {
		err = f.write()
	}
	f.mu.Unlock()

	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if changed {
		f.table.notify(key)
	}

	return nil
}

// write saves the current values. Must be called with f.mu held.
func (f *File) write() error {
	doc := DocumentFromValues(f.table.snapshot())

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}

	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}

	f.lastWritten = data

	return nil
}

func (f *File) decode(data []byte) (map[string]any, error) {
	if err := f.viper.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var doc Document
	if err := f.viper.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	values := doc.Values()
	if err := ValidateAll(values); err != nil {
		return nil, err
	}

	return values, nil
}

func (f *File) watch(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != f.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			f.log.Debug().Str("op", event.Op.String()).Msg("settings file changed")
			f.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			f.log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}

// reload applies external edits and dispatches notifications for every key
// that changed. Values are stored by the posted function, so that readers on
// the loop never see a new value before its notification.
func (f *File) reload() {
	f.mu.Lock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		f.mu.Unlock()
		f.log.Warn().Err(err).Msg("failed to read settings file")
		return
	}

	if bytes.Equal(data, f.lastWritten) {
		f.mu.Unlock()
		return
	}

	values, err := f.decode(data)
	if err != nil {
		f.mu.Unlock()
		f.log.Warn().Err(err).Msg("ignoring invalid settings file")
		return
	}

	f.lastWritten = data
	f.mu.Unlock()

	apply := func() {
		var changed []string
		for key, value := range values {
			ok, err := f.table.set(key, value)
			if err != nil {
				f.log.Warn().Err(err).Str("key", key).Msg("ignoring settings value")
				continue
			}

			if ok {
				changed = append(changed, key)
			}
		}

		if len(changed) == 0 {
			return
		}

		slices.Sort(changed)
		f.log.Debug().Strs("keys", changed).Msg("settings reloaded")

		for _, key := range changed {
			f.table.notify(key)
		}
	}

	if f.post != nil {
		f.post(apply)
	} else {
		apply()
	}
}
