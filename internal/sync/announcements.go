package sync

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/mapper"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
)

// SyncAnnouncements mirrors the announcements of one course.
func (s *Service) SyncAnnouncements(ctx context.Context, course models.Course) (EntityCount, []string, error) {
	raw, err := s.canvas.ListAnnouncements(ctx, course.CanvasCourseID)
	if err != nil {
		return EntityCount{}, nil, err
	}

	var count EntityCount
	var warns []string

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, rawAnnouncement := range raw {
			announcement, mapWarns, mapErr := mapper.Announcement(course.ID, rawAnnouncement)
			warns = append(warns, mapWarns...)
			if mapErr != nil {
				count.Skipped++
				warns = append(warns, fmt.Sprintf("announcement %d skipped: %v", rawAnnouncement.ID, mapErr))
				continue
			}

			created, err := s.announcements.UpsertTx(ctx, tx, announcement)
			if err != nil {
				return err
			}
			count.add(created)
		}
		return nil
	})
	if err != nil {
		return EntityCount{}, nil, err
	}
	return count, warns, nil
}
