package sync

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/mapper"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
)

// SyncModules mirrors the modules of one course and then the items of
// each module, parents before children, in a single transaction.
func (s *Service) SyncModules(ctx context.Context, course models.Course) (EntityCount, EntityCount, []string, error) {
	raw, err := s.canvas.ListModules(ctx, course.CanvasCourseID)
	if err != nil {
		return EntityCount{}, EntityCount{}, nil, err
	}

	type pending struct {
		localID  int64
		canvasID int64
	}

	var moduleCount, itemCount EntityCount
	var warns []string
	var written []pending

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, rawModule := range raw {
			module, mapWarns, mapErr := mapper.Module(course.ID, rawModule)
			warns = append(warns, mapWarns...)
			if mapErr != nil {
				moduleCount.Skipped++
				warns = append(warns, fmt.Sprintf("module %d skipped: %v", rawModule.ID, mapErr))
				continue
			}

			created, err := s.modules.UpsertTx(ctx, tx, module)
			if err != nil {
				return err
			}
			moduleCount.add(created)
			written = append(written, pending{localID: module.ID, canvasID: rawModule.ID})
		}
		return nil
	})
	if err != nil {
		return EntityCount{}, EntityCount{}, nil, err
	}

	// Items are fetched outside the module transaction so a slow or
	// failing item listing cannot hold locks or sink the modules.
	for _, mod := range written {
		rawItems, err := s.canvas.ListModuleItems(ctx, course.CanvasCourseID, mod.canvasID)
		if err != nil {
			return moduleCount, itemCount, warns, err
		}

		err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
			for _, rawItem := range rawItems {
				item, mapWarns, mapErr := mapper.ModuleItem(mod.localID, rawItem)
				warns = append(warns, mapWarns...)
				if mapErr != nil {
					itemCount.Skipped++
					warns = append(warns, fmt.Sprintf("module item %d skipped: %v", rawItem.ID, mapErr))
					continue
				}

				created, err := s.modules.UpsertItemTx(ctx, tx, item)
				if err != nil {
					return err
				}
				itemCount.add(created)
			}
			return nil
		})
		if err != nil {
			return moduleCount, itemCount, warns, err
		}
	}

	return moduleCount, itemCount, warns, nil
}
