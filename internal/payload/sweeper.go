package payload

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"stackbridge/internal/shared/metrics"
	"stackbridge/internal/shared/telemetry"
)

// Sweep removes payload files left behind by crashed calls. Only files that
// match this channel's naming pattern and are older than maxAge are touched.
func (c *Channel) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, &IOError{Op: "sweep", Path: c.dir, Err: err}
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !c.owns(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := c.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (c *Channel) owns(name string) bool {
	if !strings.HasPrefix(name, c.prefix) || !strings.HasSuffix(name, fileSuffix) {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, c.prefix), fileSuffix)
	_, err := uuid.Parse(id)
	return err == nil
}

// Sweeper periodically calls Sweep until its context is canceled.
type Sweeper struct {
	Channel  *Channel
	Interval time.Duration
	MaxAge   time.Duration
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Channel == nil || s.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() {
	removed, err := s.Channel.Sweep(s.MaxAge)
	if removed > 0 {
		metrics.AddPayloadFilesSwept(removed)
		telemetry.Info("payload.sweep", map[string]any{
			"dir":     s.Channel.Dir(),
			"removed": removed,
		})
	}
	if err != nil {
		telemetry.Error("payload.sweep_failed", map[string]any{
			"dir":   s.Channel.Dir(),
			"error": err.Error(),
		})
	}
}
