// Package retention removes report files that have outlived the retention window.
package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sweeper deletes regular files in Dir named Prefix* with one of Suffixes whose
// modification time is strictly older than Retention. Subdirectories are not visited.
type Sweeper struct {
	Dir       string
	Prefix    string
	Suffixes  []string
	Retention time.Duration
	Logger    *zap.Logger
}

func (s Sweeper) matches(name string) bool {
	if !strings.HasPrefix(name, s.Prefix) {
		return false
	}
	if len(s.Suffixes) == 0 {
		return true
	}
	for _, suffix := range s.Suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Sweep deletes every expired report relative to now and returns the removed paths.
// Deletion is permanent. Files that disappear while sweeping are skipped; other per-file
// failures are collected and returned together after the remaining files are processed.
func (s Sweeper) Sweep(ctx context.Context, now time.Time) ([]string, error) {
	if s.Retention <= 0 {
		return nil, fmt.Errorf("retention window must be positive, got %v", s.Retention)
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}

	dirents, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("reading report directory %s: %w", dir, err)
	}
	sort.Sort(dirents)

	cutoff := now.Add(-s.Retention)
	var (
		deleted []string
		errs    error
	)
	for _, de := range dirents {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if !de.IsRegular() || !s.matches(de.Name()) {
			continue
		}
		path := filepath.Join(dir, de.Name())
		info, err := os.Lstat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = multierr.Append(errs, fmt.Errorf("stat %s: %w", path, err))
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("failed to delete expired report", zap.String("path", path), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("removing %s: %w", path, err))
			}
			continue
		}
		logger.Info("deleted expired report",
			zap.String("path", path),
			zap.Duration("age", now.Sub(info.ModTime()).Truncate(time.Second)))
		deleted = append(deleted, path)
	}
	return deleted, errs
}
