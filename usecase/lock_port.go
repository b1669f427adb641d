package usecase

import "context"

// UserLocker serializes work per user. The returned release func must be called exactly once.
type UserLocker interface {
	Lock(ctx context.Context, userID string) (release func(), err error)
}
