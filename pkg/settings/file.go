// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type yamlSettings struct {
	WorkThresholdMinutes int            `yaml:"work_threshold_minutes"`
	BreakDurations       BreakDurations `yaml:"break_durations"`
	NotificationsEnabled *bool          `yaml:"notifications_enabled"`
}

// FileProvider is a Provider backed by a YAML file. Edits to the file are picked
// up by Watch. The file holds deployment defaults; per-user thresholds live in
// each user's timer state.
type FileProvider struct {
	*Provider
	path string
}

// LoadFile reads settings from path. A missing file yields defaults.
func LoadFile(path string) (*FileProvider, error) {
	provider := &FileProvider{
		Provider: NewProvider(Default()),
		path:     path,
	}
	if err := provider.Reload(); err != nil {
		return provider, err
	}
	return provider, nil
}

// Path returns the settings file location.
func (f *FileProvider) Path() string {
	return f.path
}

// Reload re-reads the settings file.
func (f *FileProvider) Reload() error {
	rawData, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.Replace(Default())
			return nil
		}
		return fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return fmt.Errorf("parse settings yaml: %w", err)
	}

	f.Replace(fromYaml(fileData))
	return nil
}

// Watch reloads the file whenever it changes until ctx is cancelled.
// The parent directory is watched so editors that replace the file are handled.
func (f *FileProvider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch settings directory: %w", err)
	}
	logrus.Infof("watching settings file %s", f.path)

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := f.Reload(); err != nil {
				logrus.Warnf("failed to reload settings from %s: %v", f.path, err)
				continue
			}
			logrus.Infof("reloaded settings from %s", f.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("settings watcher error: %v", err)
		}
	}
}

func fromYaml(fileData yamlSettings) Settings {
	settings := Default()
	if fileData.WorkThresholdMinutes > 0 {
		settings.WorkThresholdMinutes = fileData.WorkThresholdMinutes
	}
	if fileData.BreakDurations.Short > 0 {
		settings.BreakDurations.Short = fileData.BreakDurations.Short
	}
	if fileData.BreakDurations.Medium > 0 {
		settings.BreakDurations.Medium = fileData.BreakDurations.Medium
	}
	if fileData.BreakDurations.Long > 0 {
		settings.BreakDurations.Long = fileData.BreakDurations.Long
	}
	if fileData.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *fileData.NotificationsEnabled
	}
	return settings
}
