package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// promptChangeOps are the events that can change a prompt file's content.
const promptChangeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watch clears the cache whenever a prompt file in the directory changes and
// then calls onChange, if set. It returns a function that stops watching;
// watching also stops when ctx is done.
func (s *PromptStore) Watch(ctx context.Context, onChange func()) (stop func() error, err error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close() //nolint:errcheck
		return nil, fmt.Errorf("watch prompt directory %s: %w", s.dir, err)
	}

	logger.Debug("Watching prompts in %s", s.dir)
	go s.watchLoop(ctx, watcher, onChange)

	return watcher.Close, nil
}

func (s *PromptStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			watcher.Close() //nolint:errcheck
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".txt" || event.Op&promptChangeOps == 0 {
				continue
			}
			logger.Debug("Prompt %s changed (%s), reloading", filepath.Base(event.Name), event.Op)
			s.Reload()
			if onChange != nil {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Prompt watcher error: %v", err)
		}
	}
}
