package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// TermRepository handles persistence for mirrored academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// UpsertTx inserts or updates a term keyed by its Canvas id and fills in
// the local id. The local id and creation timestamp survive updates.
func (r *TermRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, term *models.Term) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM terms WHERE canvas_term_id = ?`, term.CanvasTermID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		term.CreatedAt = now
		term.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO terms
			(canvas_term_id, name, start_date, end_date, created_at, updated_at)
			VALUES (:canvas_term_id, :name, :start_date, :end_date, :created_at, :updated_at)`, term)
		if err != nil {
			return false, fmt.Errorf("insert term: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("term insert id: %w", err)
		}
		term.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup term: %w", err)
	}

	term.ID = existing.ID
	term.CreatedAt = existing.CreatedAt
	term.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE terms
		SET name = :name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at
		WHERE id = :id`, term); err != nil {
		return false, fmt.Errorf("update term: %w", err)
	}
	return false, nil
}

// FindByCanvasID loads a term by its Canvas identifier.
func (r *TermRepository) FindByCanvasID(ctx context.Context, canvasTermID int64) (*models.Term, error) {
	var term models.Term
	if err := r.db.GetContext(ctx, &term,
		`SELECT * FROM terms WHERE canvas_term_id = ?`, canvasTermID); err != nil {
		return nil, err
	}
	return &term, nil
}

// List returns all terms ordered by start date, newest first.
func (r *TermRepository) List(ctx context.Context) ([]models.Term, error) {
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms,
		`SELECT * FROM terms ORDER BY start_date DESC`); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}
