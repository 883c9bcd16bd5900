package workspace

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Watcher records files created, written, removed or renamed under a root.
// The controller drains it once per iteration.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	ignore  gitignore.IgnoreParser

	mu      sync.Mutex
	changed map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching root and all its subdirectories. Paths matching
// ignore patterns (plus the workspace ignore file) are not recorded.
func NewWatcher(root string, ignore ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		watcher: fw,
		ignore:  Matcher(root, ignore...),
		changed: make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." && w.ignore.MatchesPath(rel) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			log.Printf("⚠️  Failed to watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to walk workspace: %w", err)
	}

	w.wg.Add(1)
	go w.eventLoop()
	return w, nil
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.rel(event.Name)
	if !ok || w.ignore.MatchesPath(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Printf("⚠️  Failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.changed[rel] = struct{}{}
		w.mu.Unlock()
	}
}

// Drain returns the paths changed since the previous call, sorted, and
// resets the set.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.changed) == 0 {
		return nil
	}
	paths := make([]string, 0, len(w.changed))
	for p := range w.changed {
		paths = append(paths, p)
	}
	w.changed = make(map[string]struct{})
	sort.Strings(paths)
	return paths
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
