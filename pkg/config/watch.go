package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/zen-systems/herald/pkg/agency"
	"github.com/zen-systems/herald/pkg/backend"
)

// Watcher reloads the registries when the config file changes. A file that
// fails validation is rejected and the last good snapshot stays in place;
// replacement is copy-on-write so in-flight scoring passes finish against
// the snapshot they started with.
type Watcher struct {
	path     string
	backends *backend.Registry
	groups   *agency.Registry
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// Watch starts watching path and applying valid reloads to the registries.
func Watch(path string, backends *backend.Registry, groups *agency.Registry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save
	// and a direct file watch goes stale after the first rename.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     path,
		backends: backends,
		groups:   groups,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[config] watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("[config] reload rejected, keeping previous registries: %v", err)
		return
	}
	if err := w.backends.Replace(cfg.BackendList()); err != nil {
		log.Printf("[config] backend reload failed: %v", err)
		return
	}
	if err := w.groups.Replace(cfg.WorkGroupList()); err != nil {
		log.Printf("[config] work-group reload failed: %v", err)
		return
	}
	log.Printf("[config] reloaded %s: %d backends, %d work-groups",
		w.path, len(cfg.Backends), len(cfg.WorkGroups))
}
