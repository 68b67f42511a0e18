// Package watcher reruns work when source files under a root change.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mvp-joe/ctxpack/internal/discovery"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 300 * time.Millisecond

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// treeWatcher watches every non-ignored directory below root. The batch
// and the debounce timer are owned by the loop goroutine.
type treeWatcher struct {
	fsw      *fsnotify.Watcher
	root     string
	rules    *discovery.FileDiscovery
	debounce time.Duration

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher for every non-ignored directory under
// root. Only files fd considers eligible trigger the callback. A
// non-positive debounce uses DefaultDebounce.
func NewFileWatcher(root string, fd *discovery.FileDiscovery, debounce time.Duration) (FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	tw := &treeWatcher{
		fsw:      fsw,
		root:     root,
		rules:    fd,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	if err := tw.watchTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return tw, nil
}

// Start launches the event loop. A nil callback is a no-op.
func (tw *treeWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	tw.cancel = cancel
	go tw.loop(loopCtx, callback)
	return nil
}

// Stop ends the loop, if running, and releases the fsnotify watcher.
func (tw *treeWatcher) Stop() error {
	var err error
	tw.stopOnce.Do(func() {
		if tw.cancel != nil {
			tw.cancel()
			<-tw.done
		} else {
			close(tw.done)
		}
		err = tw.fsw.Close()
	})
	return err
}

func (tw *treeWatcher) loop(ctx context.Context, callback func(files []string)) {
	defer close(tw.done)

	pending := make(map[string]struct{})
	timer := time.NewTimer(tw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-tw.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				tw.followNewDir(event.Name)
			}
			if !tw.relevant(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(tw.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for name := range pending {
				batch = append(batch, name)
			}
			clear(pending)
			sort.Strings(batch)
			callback(batch)

		case err, ok := <-tw.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] %v", err)
		}
	}
}

// followNewDir starts watching a directory created after startup.
func (tw *treeWatcher) followNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || tw.ignored(path) {
		return
	}
	if err := tw.watchTree(path); err != nil {
		log.Printf("Warning: failed to watch new directory %s: %v", path, err)
	}
}

// relevant keeps writes, creates, removes and renames of eligible files
// outside ignored directories.
func (tw *treeWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&relevantOps == 0 || !tw.rules.Eligible(event.Name) {
		return false
	}
	return !tw.ignored(filepath.Dir(event.Name))
}

func (tw *treeWatcher) ignored(dir string) bool {
	rel, err := filepath.Rel(tw.root, dir)
	if err != nil || rel == "." {
		return false
	}
	return tw.rules.IgnoreDir(filepath.ToSlash(rel))
}

// watchTree adds dir and its non-ignored subdirectories. Only a failure
// on dir itself is returned.
func (tw *treeWatcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if tw.ignored(path) {
			return filepath.SkipDir
		}
		if err := tw.fsw.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
