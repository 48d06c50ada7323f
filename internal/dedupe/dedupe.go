package dedupe

import "context"

// Store remembers which article documents were already indexed.
type Store interface {
	IsSeen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string) error
}
