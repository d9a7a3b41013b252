package sync

import (
	"context"

	"go.uber.org/zap"
)

// SyncAll runs a full pass: courses with terms and syllabi first, then
// every child entity type per course. Entity failures are isolated per
// course and recorded on the result; only a failure to list courses at
// all, or an invalid term filter, returns an error.
func (s *Service) SyncAll(ctx context.Context, opts Options) (*Result, error) {
	opts = s.options(opts)
	res := newResult()
	defer res.finish()

	s.log.Info("sync pass started",
		zap.String("run_id", res.RunID),
		zap.String("term", opts.Term),
		zap.String("enrollment_state", opts.EnrollmentState))

	var selfUserID int64
	if user, err := s.canvas.CurrentUser(ctx); err != nil {
		res.addError(0, EntityConversation, err)
		s.log.Warn("current user lookup failed, conversation authors degrade", zap.Error(err))
	} else {
		selfUserID = user.ID
	}

	courses, err := s.syncCourses(ctx, res, opts)
	if err != nil {
		return res, err
	}

	for _, course := range courses {
		if count, events, warns, err := s.SyncAssignments(ctx, course); err != nil {
			res.addError(course.CanvasCourseID, EntityAssignment, err)
		} else {
			res.mergeCount(EntityAssignment, count)
			res.mergeCount(EntityCalendar, events)
			res.warn(warns...)
		}

		if modules, items, warns, err := s.SyncModules(ctx, course); err != nil {
			res.addError(course.CanvasCourseID, EntityModule, err)
			res.mergeCount(EntityModule, modules)
			res.mergeCount(EntityModuleItem, items)
		} else {
			res.mergeCount(EntityModule, modules)
			res.mergeCount(EntityModuleItem, items)
			res.warn(warns...)
		}

		if count, warns, err := s.SyncAnnouncements(ctx, course); err != nil {
			res.addError(course.CanvasCourseID, EntityAnnouncement, err)
		} else {
			res.mergeCount(EntityAnnouncement, count)
			res.warn(warns...)
		}

		if count, warns, err := s.SyncCalendarEvents(ctx, course); err != nil {
			res.addError(course.CanvasCourseID, EntityCalendar, err)
		} else {
			res.mergeCount(EntityCalendar, count)
			res.warn(warns...)
		}

		if count, warns, err := s.SyncConversations(ctx, course, selfUserID); err != nil {
			res.addError(course.CanvasCourseID, EntityConversation, err)
		} else {
			res.mergeCount(EntityConversation, count)
			res.warn(warns...)
		}
	}

	s.log.Info("sync pass finished",
		zap.String("run_id", res.RunID),
		zap.Int("courses", len(res.CourseIDs)),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)))

	return res, nil
}
