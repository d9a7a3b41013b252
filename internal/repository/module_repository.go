package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// ModuleRepository persists modules and their items.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates the repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// UpsertTx inserts or updates a module keyed by
// (course_id, canvas_module_id) and fills in the local id.
func (r *ModuleRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, m *models.Module) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM modules WHERE course_id = ? AND canvas_module_id = ?`,
		m.CourseID, m.CanvasModuleID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		m.CreatedAt = now
		m.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO modules
			(course_id, canvas_module_id, name, description, position, unlock_date,
			 require_sequential_progress, created_at, updated_at)
			VALUES (:course_id, :canvas_module_id, :name, :description, :position, :unlock_date,
			 :require_sequential_progress, :created_at, :updated_at)`, m)
		if err != nil {
			return false, fmt.Errorf("insert module: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("module insert id: %w", err)
		}
		m.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup module: %w", err)
	}

	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE modules
		SET name = :name, description = :description, position = :position,
		    unlock_date = :unlock_date,
		    require_sequential_progress = :require_sequential_progress,
		    updated_at = :updated_at
		WHERE id = :id`, m); err != nil {
		return false, fmt.Errorf("update module: %w", err)
	}
	return false, nil
}

// UpsertItemTx inserts or updates a module item keyed by
// (module_id, canvas_item_id) and fills in the local id.
func (r *ModuleRepository) UpsertItemTx(ctx context.Context, tx *sqlx.Tx, item *models.ModuleItem) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM module_items WHERE module_id = ? AND canvas_item_id = ?`,
		item.ModuleID, item.CanvasItemID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		item.CreatedAt = now
		item.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO module_items
			(module_id, canvas_item_id, title, position, content_type, type, item_type,
			 content_id, url, page_url, content_details, created_at, updated_at)
			VALUES (:module_id, :canvas_item_id, :title, :position, :content_type, :type, :item_type,
			 :content_id, :url, :page_url, :content_details, :created_at, :updated_at)`, item)
		if err != nil {
			return false, fmt.Errorf("insert module item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("module item insert id: %w", err)
		}
		item.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup module item: %w", err)
	}

	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE module_items
		SET title = :title, position = :position, content_type = :content_type,
		    type = :type, item_type = :item_type, content_id = :content_id,
		    url = :url, page_url = :page_url, content_details = :content_details,
		    updated_at = :updated_at
		WHERE id = :id`, item); err != nil {
		return false, fmt.Errorf("update module item: %w", err)
	}
	return false, nil
}

// ListByCourse returns the modules of a course ordered by position.
func (r *ModuleRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Module, error) {
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules,
		`SELECT * FROM modules WHERE course_id = ? ORDER BY position IS NULL, position, id`,
		courseID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// ListItems returns the items of a module ordered by position.
func (r *ModuleRepository) ListItems(ctx context.Context, moduleID int64) ([]models.ModuleItem, error) {
	var items []models.ModuleItem
	if err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM module_items WHERE module_id = ? ORDER BY position IS NULL, position, id`,
		moduleID); err != nil {
		return nil, fmt.Errorf("list module items: %w", err)
	}
	return items, nil
}
