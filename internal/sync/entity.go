package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/internal/models"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

// SyncEntity runs a single-entity pass for one mirrored course. The
// entity label is one of the Entity* constants; module items ride along
// with modules and derived calendar events with assignments, same as in
// a full pass.
func (s *Service) SyncEntity(ctx context.Context, course models.Course, entity string) (*Result, error) {
	res := newResult()
	defer res.finish()
	res.addCourse(course.ID)

	s.log.Info("entity sync started",
		zap.String("run_id", res.RunID),
		zap.String("entity", entity),
		zap.Int64("canvas_course_id", course.CanvasCourseID))

	switch entity {
	case EntityAssignment:
		count, events, warns, err := s.SyncAssignments(ctx, course)
		if err != nil {
			res.addError(course.CanvasCourseID, EntityAssignment, err)
			break
		}
		res.mergeCount(EntityAssignment, count)
		res.mergeCount(EntityCalendar, events)
		res.warn(warns...)

	case EntityModule:
		modules, items, warns, err := s.SyncModules(ctx, course)
		res.mergeCount(EntityModule, modules)
		res.mergeCount(EntityModuleItem, items)
		if err != nil {
			res.addError(course.CanvasCourseID, EntityModule, err)
			break
		}
		res.warn(warns...)

	case EntityAnnouncement:
		count, warns, err := s.SyncAnnouncements(ctx, course)
		if err != nil {
			res.addError(course.CanvasCourseID, EntityAnnouncement, err)
			break
		}
		res.mergeCount(EntityAnnouncement, count)
		res.warn(warns...)

	case EntityCalendar:
		count, warns, err := s.SyncCalendarEvents(ctx, course)
		if err != nil {
			res.addError(course.CanvasCourseID, EntityCalendar, err)
			break
		}
		res.mergeCount(EntityCalendar, count)
		res.warn(warns...)

	case EntityConversation:
		var selfUserID int64
		if user, err := s.canvas.CurrentUser(ctx); err != nil {
			res.addError(0, EntityConversation, err)
			s.log.Warn("current user lookup failed, conversation authors degrade", zap.Error(err))
		} else {
			selfUserID = user.ID
		}
		count, warns, err := s.SyncConversations(ctx, course, selfUserID)
		if err != nil {
			res.addError(course.CanvasCourseID, EntityConversation, err)
			break
		}
		res.mergeCount(EntityConversation, count)
		res.warn(warns...)

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown entity type: "+entity)
	}

	return res, nil
}
