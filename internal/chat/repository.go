// internal/chat/repository.go
package chat

import (
	"context"

	"github.com/pad-games/backend/internal/models"
)

// Repository is the persistence contract for chat messages.
type Repository interface {
	Save(ctx context.Context, msg *models.ChatMessage) error
	History(ctx context.Context, lobbyID string, limit int) ([]models.ChatMessage, error)
	Clear(ctx context.Context, lobbyID string) (int64, error)
	Stats(ctx context.Context, lobbyID string) (*models.ChatStats, error)
	Ping(ctx context.Context) error
}
