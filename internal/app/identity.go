package app

import "context"

// Identity resolves the player behind a request.
type Identity interface {
	CurrentUser(ctx context.Context) (string, error)
}

// StaticIdentity is an identity fixed at construction, as supplied by a header, query or flag.
type StaticIdentity string

func (i StaticIdentity) CurrentUser(context.Context) (string, error) {
	return string(i), nil
}
