// Package watch reports edits to level source files so a job can rebuild.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a changed file by the document it holds.
type Kind string

const (
	KindEditor     Kind = "editor"
	KindLayer      Kind = "layer"
	KindLibrary    Kind = "library"
	KindVegetation Kind = "vegetation"
	KindMaterial   Kind = "material"
)

// DefaultDebounce drops repeated events for one path inside this window.
const DefaultDebounce = 100 * time.Millisecond

// Classify returns the kind for a path, or false for files that never
// affect a build.
func Classify(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".editor_xml":
		return KindEditor, true
	case ".lyr":
		return KindLayer, true
	case ".xml":
		return KindLibrary, true
	case ".veg":
		return KindVegetation, true
	case ".mtl":
		return KindMaterial, true
	}
	return "", false
}

// Event is one relevant change.
type Event struct {
	Path string
	Kind Kind
}

// Watcher forwards relevant fsnotify events. Events and Errors are closed
// after Close returns.
type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan Event
	Errors   chan error
	debounce time.Duration
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New watches every directory under each root.
func New(roots ...string) (*Watcher, error) {
	return NewWithDebounce(DefaultDebounce, roots...)
}

// NewWithDebounce is New with a custom debounce window.
func NewWithDebounce(debounce time.Duration, roots ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return w.Add(path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		Events:   make(chan Event, 16),
		Errors:   make(chan error, 1),
		debounce: debounce,
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				_ = w.watcher.Add(event.Name)
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			kind, ok := Classify(event.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- Event{Path: event.Name, Kind: kind}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			case <-w.closeCh:
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
