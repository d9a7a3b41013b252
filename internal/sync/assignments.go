package sync

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/mapper"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
)

// SyncAssignments mirrors all assignments of one course and derives a
// calendar event for every due-dated assignment in the same
// transaction. Per-record validation failures are skipped with a
// warning; a storage failure rolls back the whole course batch.
// Returns separate tallies for assignments and derived events.
func (s *Service) SyncAssignments(ctx context.Context, course models.Course) (EntityCount, EntityCount, []string, error) {
	raw, err := s.canvas.ListAssignments(ctx, course.CanvasCourseID)
	if err != nil {
		return EntityCount{}, EntityCount{}, nil, err
	}

	var count, eventCount EntityCount
	var warns []string

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, rawAssignment := range raw {
			assignment, mapWarns, mapErr := mapper.Assignment(course.ID, rawAssignment)
			warns = append(warns, mapWarns...)
			if mapErr != nil {
				count.Skipped++
				warns = append(warns, fmt.Sprintf("assignment %d skipped: %v", rawAssignment.ID, mapErr))
				continue
			}

			created, err := s.assignments.UpsertTx(ctx, tx, assignment)
			if err != nil {
				return err
			}
			count.add(created)

			if event := mapper.AssignmentEvent(assignment); event != nil {
				created, err := s.calendar.UpsertTx(ctx, tx, event)
				if err != nil {
					return err
				}
				eventCount.add(created)
			}
		}
		return nil
	})
	if err != nil {
		return EntityCount{}, EntityCount{}, nil, err
	}
	return count, eventCount, warns, nil
}
