package service

import (
	"context"
	"time"

	"NewsEdge/internal/domain/models"
)

// NewsSource yields recent news items from a provider.
type NewsSource interface {
	Fetch(ctx context.Context, since time.Time) ([]*models.NewsItem, error)
}
