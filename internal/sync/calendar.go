package sync

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/mapper"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
)

// SyncCalendarEvents mirrors the Canvas calendar entries of one
// course. Events derived from assignment due dates are written by
// SyncAssignments and live under a different source type, so the two
// passes never collide.
func (s *Service) SyncCalendarEvents(ctx context.Context, course models.Course) (EntityCount, []string, error) {
	raw, err := s.canvas.ListCalendarEvents(ctx, course.CanvasCourseID)
	if err != nil {
		return EntityCount{}, nil, err
	}

	var count EntityCount
	var warns []string

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, rawEvent := range raw {
			event, mapWarns, mapErr := mapper.CalendarEvent(course.ID, rawEvent)
			warns = append(warns, mapWarns...)
			if mapErr != nil {
				count.Skipped++
				warns = append(warns, fmt.Sprintf("calendar event %d skipped: %v", rawEvent.ID, mapErr))
				continue
			}

			created, err := s.calendar.UpsertTx(ctx, tx, event)
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
