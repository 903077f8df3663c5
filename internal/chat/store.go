package chat

import "context"

// Store is the persistence gateway. Each call is atomic on its own; no
// transactionality is assumed across calls.
type Store interface {
	GetChatByID(ctx context.Context, chatID string) (*Chat, error)
	SaveChat(ctx context.Context, c *Chat) error
	DeleteChatByID(ctx context.Context, chatID string) error

	SaveMessages(ctx context.Context, msgs []*Message) error
	ListMessages(ctx context.Context, chatID string, limit int, beforeID uint64) ([]Message, error)

	CreateTitleJob(ctx context.Context, job *TitleJob) error
	GetTitleJobByID(ctx context.Context, id string) (*TitleJob, error)
	MarkTitleJobRunning(ctx context.Context, id string) error
	MarkTitleJobSucceeded(ctx context.Context, id string) error
	MarkTitleJobFailed(ctx context.Context, id string, errMsg string) error
	UpdateChatTitle(ctx context.Context, chatID string, title string) error
}

// TitlePublisher enqueues title refinement jobs for the worker.
type TitlePublisher interface {
	PublishTitleJob(ctx context.Context, jobID string) error
}
