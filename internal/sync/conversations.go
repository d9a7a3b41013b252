package sync

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/mapper"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
)

// SyncConversations mirrors the inbox threads attributed to one
// course. selfUserID identifies the token's user so the counterpart
// participant can be recorded as the author.
func (s *Service) SyncConversations(ctx context.Context, course models.Course, selfUserID int64) (EntityCount, []string, error) {
	raw, err := s.canvas.ListConversations(ctx, course.CanvasCourseID)
	if err != nil {
		return EntityCount{}, nil, err
	}

	var count EntityCount
	var warns []string

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, rawConversation := range raw {
			conversation, mapWarns, mapErr := mapper.Conversation(course.ID, selfUserID, rawConversation)
			warns = append(warns, mapWarns...)
			if mapErr != nil {
				count.Skipped++
				warns = append(warns, fmt.Sprintf("conversation %d skipped: %v", rawConversation.ID, mapErr))
				continue
			}

			created, err := s.conversations.UpsertTx(ctx, tx, conversation)
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
