package store

import "ieltsprep/pkg/domain"

// Store defines persistence operations for user accounts and their progress.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUsername(username string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// progress
	GetProgress(userID, practiceSetID string) (domain.Progress, bool, error)
	SaveProgress(domain.Progress) error
	ListProgressByUser(userID string) ([]domain.Progress, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
