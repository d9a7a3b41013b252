package sync

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/pkg/database"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

// PruneCourses deletes mirrored courses that no longer appear in the
// Canvas listing under the configured filter. Sync passes never delete
// anything; this is a separate, explicitly invoked operation and stays
// refused unless enabled in configuration. Children cascade with the
// course rows; terms survive.
func (s *Service) PruneCourses(ctx context.Context, opts Options) ([]int64, error) {
	if !s.cfg.EnablePrune {
		return nil, appErrors.Clone(appErrors.ErrSyncDisabled, "course pruning is disabled")
	}
	opts = s.options(opts)

	listed, err := s.canvas.ListCourses(ctx, opts.EnrollmentState)
	if err != nil {
		return nil, err
	}
	remote, err := filterByTerm(listed, opts.Term)
	if err != nil {
		return nil, err
	}

	keep := make(map[int64]struct{}, len(remote))
	for _, c := range remote {
		keep[c.ID] = struct{}{}
	}

	local, err := s.courses.ListCanvasIDs(ctx)
	if err != nil {
		return nil, err
	}

	var stale []int64
	for _, id := range local {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := s.courses.DeleteByCanvasIDs(ctx, tx, stale)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("pruned courses",
		zap.Int("count", len(stale)),
		zap.Int64s("canvas_course_ids", stale))
	return stale, nil
}
