package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/internal/canvas"
	"github.com/noah-isme/canvas-sync-api/internal/mapper"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/config"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

// SyncCourses runs a courses-only pass: terms, courses and syllabi are
// refreshed under the usual term and enrollment policy without touching
// any child entity. Per-course failures land on the result; only a
// failure to list courses, or an invalid term filter, returns an error.
func (s *Service) SyncCourses(ctx context.Context, opts Options) (*Result, error) {
	opts = s.options(opts)
	res := newResult()
	defer res.finish()

	s.log.Info("courses-only sync started",
		zap.String("run_id", res.RunID),
		zap.String("term", opts.Term),
		zap.String("enrollment_state", opts.EnrollmentState))

	if _, err := s.syncCourses(ctx, res, opts); err != nil {
		return res, err
	}
	return res, nil
}

// syncCourses lists, filters and upserts courses plus their terms and
// syllabi. Returns the local course rows that were written; per-course
// failures land on the result and do not abort the pass.
func (s *Service) syncCourses(ctx context.Context, res *Result, opts Options) ([]models.Course, error) {
	listed, err := s.canvas.ListCourses(ctx, opts.EnrollmentState)
	if err != nil {
		return nil, err
	}

	filtered, err := filterByTerm(listed, opts.Term)
	if err != nil {
		return nil, err
	}

	s.log.Info("course sync pass",
		zap.Int("listed", len(listed)),
		zap.Int("after_term_filter", len(filtered)),
		zap.String("term", opts.Term))

	var synced []models.Course
	for _, listing := range filtered {
		course, err := s.syncCourse(ctx, res, listing.ID)
		if err != nil {
			res.addError(listing.ID, EntityCourse, err)
			s.log.Warn("course sync failed",
				zap.Int64("canvas_course_id", listing.ID), zap.Error(err))
			continue
		}
		res.addCourse(course.ID)
		synced = append(synced, *course)
	}
	return synced, nil
}

// syncCourse fetches one course's detail and writes term, course and
// syllabus rows in a single transaction, parents first.
func (s *Service) syncCourse(ctx context.Context, res *Result, canvasCourseID int64) (*models.Course, error) {
	detail, err := s.canvas.GetCourse(ctx, canvasCourseID)
	if err != nil {
		return nil, err
	}

	var course *models.Course
	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var termID *int64
		if detail.Term != nil {
			term, warns, mapErr := mapper.Term(*detail.Term)
			res.warn(warns...)
			if mapErr != nil {
				res.warn(fmt.Sprintf("course %d term dropped: %v", canvasCourseID, mapErr))
			} else {
				created, upErr := s.terms.UpsertTx(ctx, tx, term)
				if upErr != nil {
					return upErr
				}
				res.record(EntityTerm, created)
				termID = &term.ID
			}
		}

		mapped, warns, mapErr := mapper.Course(detail, termID)
		res.warn(warns...)
		if mapErr != nil {
			return appErrors.Wrap(mapErr, appErrors.ErrValidation.Code,
				appErrors.ErrValidation.Status, "unusable course payload")
		}

		created, upErr := s.courses.UpsertTx(ctx, tx, mapped)
		if upErr != nil {
			return upErr
		}
		res.record(EntityCourse, created)

		if strings.TrimSpace(detail.SyllabusBody) != "" {
			syllabus := mapper.Syllabus(mapped.ID, detail.SyllabusBody)
			created, upErr := s.syllabi.UpsertTx(ctx, tx, syllabus)
			if upErr != nil {
				return upErr
			}
			res.record(EntitySyllabus, created)
		}

		course = mapped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// filterByTerm applies the term policy to a course listing. "latest"
// keeps courses in the newest enrollment term seen, "all" keeps
// everything, and an explicit id keeps exact matches; an id no course
// carries yields an empty slice, not an error.
func filterByTerm(courses []canvas.Course, term string) ([]canvas.Course, error) {
	switch term {
	case "", config.TermLatest:
		latest, ok := latestTermID(courses)
		if !ok {
			return nil, nil
		}
		return coursesInTerm(courses, latest), nil
	case config.TermAll:
		return courses, nil
	default:
		id, err := strconv.ParseInt(term, 10, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("invalid term filter %q", term))
		}
		return coursesInTerm(courses, id), nil
	}
}

func latestTermID(courses []canvas.Course) (int64, bool) {
	var latest int64
	found := false
	for _, c := range courses {
		if c.EnrollmentTermID == nil {
			continue
		}
		if !found || *c.EnrollmentTermID > latest {
			latest = *c.EnrollmentTermID
			found = true
		}
	}
	return latest, found
}

func coursesInTerm(courses []canvas.Course, termID int64) []canvas.Course {
	var out []canvas.Course
	for _, c := range courses {
		if c.EnrollmentTermID != nil && *c.EnrollmentTermID == termID {
			out = append(out, c)
		}
	}
	return out
}
