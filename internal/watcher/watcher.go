// Package watcher reports configuration artifacts as package upgrades
// create them. It puts inotify watches on every directory under the
// scan roots and announces each new .rpmnew/.rpmsave/.rpmorig file, so
// an operator can run the resolution pass as soon as there is
// something to resolve.
package watcher

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/0x6d6e647a/rpmconf/internal/resolve"
)

// Watcher watches directories for newly created artifact files.
type Watcher struct {
	out    io.Writer
	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher reporting to out.
func New(out io.Writer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		out:    out,
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// Start registers watches on the given directories and begins
// processing events. Directories created later are picked up
// automatically.
func (w *Watcher) Start(dirs []string) error {
	watched := 0
	for _, dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			fmt.Fprintf(os.Stderr, "watcher: cannot watch %s: %v\n", dir, err)
			continue
		}
		watched++
	}
	fmt.Fprintf(w.out, "Watching %d directories for new artifacts. Press Ctrl-C to stop.\n", watched)

	w.wg.Add(1)
	go w.run()
	return nil
}

// run processes fsnotify events until Stop is called.
func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: %v\n", err)
		case <-w.stopCh:
			return
		}
	}
}

// handle reacts to one filesystem event: new directories get watched,
// new artifact files get announced.
func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if err := w.fsw.Add(event.Name); err != nil {
			fmt.Fprintf(os.Stderr, "watcher: cannot watch %s: %v\n", event.Name, err)
		}
		return
	}

	if kind, ok := resolve.KindForSuffix(filepath.Ext(event.Name)); ok {
		base := event.Name[:len(event.Name)-len(kind.Suffix())]
		fmt.Fprintf(w.out, "New %s artifact: %s (config file %s)\n", kind, event.Name, base)
	}
}

// Stop halts event processing and releases the watches.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
