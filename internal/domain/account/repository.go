package account

import "context"

type Repository interface {
	CountOwnedStudios(ctx context.Context, userID uint) (int64, error)

	// Erase removes the user and everything tied to it in one transaction:
	// sessions, OAuth links, ownerships, role assignments, favorites,
	// bookings, audit entries and finally the user row.
	Erase(ctx context.Context, userID uint) error
}
