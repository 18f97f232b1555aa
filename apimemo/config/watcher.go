package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadableOptions serves the most recently loaded options file and can
// follow changes to it on disk. A reload that fails keeps the previous options.
type ReloadableOptions struct {
	path    string
	current atomic.Pointer[Options]
	logger  zerolog.Logger

	mu        sync.Mutex
	callbacks []func(*Options)
	watching  bool
}

// NewReloadableOptions reads path once and fails if that first read fails.
func NewReloadableOptions(path string, logger zerolog.Logger) (*ReloadableOptions, error) {
	r := &ReloadableOptions{
		path:   filepath.Clean(path),
		logger: logger.With().Str("component", "options").Str("file", path).Logger(),
	}
	opts, err := ReadOptionsFile(r.path)
	if err != nil {
		return nil, err
	}
	r.store(opts)
	return r, nil
}

// GetOption implements ports.OptionSource against the current options.
func (r *ReloadableOptions) GetOption(name string) (string, bool) {
	return r.current.Load().GetOption(name)
}

// Current returns the options in effect.
func (r *ReloadableOptions) Current() *Options {
	return r.current.Load()
}

// OnReload registers fn to run after every successful reload.
func (r *ReloadableOptions) OnReload(fn func(*Options)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, fn)
}

// Reload re-reads the file now.
func (r *ReloadableOptions) Reload() error {
	opts, err := ReadOptionsFile(r.path)
	if err != nil {
		return err
	}
	r.store(opts)

	r.mu.Lock()
	callbacks := make([]func(*Options), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(opts)
	}
	return nil
}

// Watch reloads the file whenever it is written or re-created, until ctx is
// done. The parent directory is watched so editors that replace the file by
// rename are picked up too.
func (r *ReloadableOptions) Watch(ctx context.Context) error {
	r.mu.Lock()
	if r.watching {
		r.mu.Unlock()
		return nil
	}
	r.watching = true
	r.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create options watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", r.path, err)
	}

	go func() {
		defer watcher.Close()
		defer func() {
			r.mu.Lock()
			r.watching = false
			r.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != r.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				r.logger.Debug().Str("op", event.Op.String()).Msg("options file change detected")
				if err := r.Reload(); err != nil {
					r.logger.Warn().Err(err).Msg("failed to reload options, keeping previous values")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn().Err(err).Msg("options watcher error")
			}
		}
	}()

	return nil
}

func (r *ReloadableOptions) store(opts *Options) {
	for _, u := range opts.Unrecognized() {
		r.logger.Warn().Int("line", u.Line).Str("option", u.Name).Msg("ignoring unrecognized option")
	}
	r.current.Store(opts)
}

var _ ports.OptionSource = (*ReloadableOptions)(nil)
