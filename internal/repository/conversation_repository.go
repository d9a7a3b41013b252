package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// ConversationRepository persists course-attributed inbox threads.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates the repository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// UpsertTx inserts or updates a conversation keyed by
// (course_id, canvas_conversation_id) and fills in the local id.
func (r *ConversationRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, c *models.Conversation) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM conversations WHERE course_id = ? AND canvas_conversation_id = ?`,
		c.CourseID, c.CanvasConversationID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		c.CreatedAt = now
		c.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO conversations
			(course_id, canvas_conversation_id, title, content, posted_by, posted_at, created_at, updated_at)
			VALUES (:course_id, :canvas_conversation_id, :title, :content, :posted_by, :posted_at, :created_at, :updated_at)`,
			c)
		if err != nil {
			return false, fmt.Errorf("insert conversation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("conversation insert id: %w", err)
		}
		c.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup conversation: %w", err)
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE conversations
		SET title = :title, content = :content, posted_by = :posted_by,
		    posted_at = :posted_at, updated_at = :updated_at
		WHERE id = :id`, c); err != nil {
		return false, fmt.Errorf("update conversation: %w", err)
	}
	return false, nil
}

// ListByCourse returns conversations for a course, newest first.
func (r *ConversationRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := r.db.SelectContext(ctx, &conversations,
		`SELECT * FROM conversations WHERE course_id = ? ORDER BY posted_at DESC, id DESC`,
		courseID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}
