package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// VAPIDKeys holds the current VAPID configuration. The server reads it on
// every request so that keys written to the env file after startup are picked
// up by WatchVAPID without a restart.
type VAPIDKeys struct {
	mu  sync.RWMutex
	env VAPIDEnv
}

func NewVAPIDKeys(env VAPIDEnv) *VAPIDKeys {
	return &VAPIDKeys{env: env}
}

func (k *VAPIDKeys) Get() VAPIDEnv {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.env
}

func (k *VAPIDKeys) Set(env VAPIDEnv) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.env = env
}

// ReloadFrom applies the VAPID_* entries found in envFile. Empty entries keep
// the current value. It reports whether anything changed.
func (k *VAPIDKeys) ReloadFrom(envFile string) (bool, error) {
	m, err := godotenv.Read(envFile)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	next := k.env
	if v := m["VAPID_PUBLIC_KEY"]; v != "" {
		next.VAPIDPublicKey = v
	}
	if v := m["VAPID_PRIVATE_KEY"]; v != "" {
		next.VAPIDPrivateKey = v
	}
	if v := m["VAPID_MAILTO"]; v != "" {
		next.VAPIDContact = v
	}
	changed := next != k.env
	k.env = next
	return changed, nil
}

const reloadDebounce = 200 * time.Millisecond

// WatchVAPID reloads keys whenever envFile is written, created or renamed
// into place. It watches the parent directory because editors usually replace
// the file rather than write it in place. It blocks until ctx is done.
func WatchVAPID(ctx context.Context, envFile string, keys *VAPIDKeys) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(envFile)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", envFile, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer = time.After(reloadDebounce)
		case <-timer:
			timer = nil
			changed, err := keys.ReloadFrom(abs)
			if err != nil {
				slog.Warn("vapid reload failed", "file", abs, "error", err)
				continue
			}
			if changed {
				slog.Info("vapid keys reloaded", "file", abs, "public_key", keys.Get().VAPIDPublicKey)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("vapid watcher error", "error", err)
		}
	}
}
