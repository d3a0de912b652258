// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package policy

import (
	"context"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// WatchPatternsFile watches path for writes and hot-reloads d's rule table
// from it, so a routing-pattern tweak doesn't require a restart. A parse
// failure logs a warning and keeps the previously loaded PatternConfig; a
// bad edit never takes a running policy offline.
//
// Returns once the initial load from path succeeds (or fails); the watch
// loop then runs until ctx is cancelled.
func WatchPatternsFile(ctx context.Context, d *DecisionPolicy, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg, err := loadPatternsFile(path); err != nil {
		logger.Warn("initial pattern file load failed, keeping compiled-in defaults", "path", path, "error", err.Error())
	} else {
		d.SetPatterns(cfg)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := loadPatternsFile(path)
				if err != nil {
					logger.Warn("pattern file reload failed, keeping previous rule table", "path", path, "error", err.Error())
					continue
				}
				d.SetPatterns(cfg)
				logger.Info("routing pattern file reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("pattern file watcher error", "error", err.Error())
			}
		}
	}()

	return nil
}

func loadPatternsFile(path string) (*PatternConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadPatterns(data)
}
