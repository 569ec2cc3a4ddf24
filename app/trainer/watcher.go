package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-pkgz/fileutils"
	"github.com/hashicorp/go-multierror"
)

// Watch watches preset and user sample files for changes and reloads the model.
// Reload waits for WatchDelay after the last change to avoid reloading on every write of a batch.
// User samples file is watched through its directory, it may be created after the start.
// Blocks until ctx is canceled.
func (t *Trainer) Watch(ctx context.Context) error {
	userFile := ""
	if fs, ok := t.params.Store.(interface{ FileName() string }); ok {
		userFile = fs.FileName()
		if st, err := os.Stat(filepath.Dir(userFile)); err != nil || !st.IsDir() {
			log.Printf("[WARN] directory of user samples file %q not found, not watched", userFile)
			userFile = ""
		}
	}
	if len(t.params.PresetFiles) == 0 && userFile == "" {
		return errors.New("no sample files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{} // files to react on
	errs := new(multierror.Error)
	for _, file := range t.params.PresetFiles {
		if !fileutils.IsFile(file) {
			errs = multierror.Append(errs, fmt.Errorf("file %q not found", file))
			continue
		}
		log.Printf("[DEBUG] add file %q to watcher", file)
		if err := watcher.Add(file); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to watch %q: %w", file, err))
			continue
		}
		watched[filepath.Clean(file)] = true
	}
	if userFile != "" {
		log.Printf("[DEBUG] add directory of %q to watcher", userFile)
		if err := watcher.Add(filepath.Dir(userFile)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to watch directory of %q: %w", userFile, err))
		}
		watched[filepath.Clean(userFile)] = true
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("failed to add some files to watcher: %w", err)
	}

	delay := t.params.WatchDelay
	if delay <= 0 {
		delay = time.Second
	}
	reloadTimer := time.NewTimer(delay)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] stopping watcher for samples: %v", ctx.Err())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue // other files in the user samples directory
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			log.Printf("[DEBUG] file %q updated, op: %v", event.Name, event.Op)
			reloadTimer.Reset(delay)
		case <-reloadTimer.C:
			if _, err := t.Reload(ctx); err != nil {
				log.Printf("[WARN] %v", err)
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", e)
		}
	}
}
