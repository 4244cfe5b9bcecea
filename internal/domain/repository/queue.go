package repository

import (
	"context"

	"github.com/google/uuid"
)

// WarmTask asks a worker to pull one image into the disk cache.
type WarmTask struct {
	ID         uuid.UUID `json:"id"`
	RecipeID   string    `json:"recipe_id"`
	ImageURL   string    `json:"image_url"`
	RetryCount int       `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishWarmTask sends a cache warming task to the queue.
	// Used by the API server after a catalog refresh.
	PublishWarmTask(ctx context.Context, task WarmTask) error

	// ConsumeWarmTasks blocks, calling handler for each received task,
	// until ctx is cancelled or the delivery channel closes.
	// Used by the worker service.
	ConsumeWarmTasks(ctx context.Context, handler func(task WarmTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
