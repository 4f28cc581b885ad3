package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type ProgressModel struct {
	UserID        string `gorm:"primaryKey"`
	PracticeSetID string `gorm:"primaryKey"`
	ScoreFITB     string
	ScoreTFNG     string
	ScoreMH       string
	DateAttempted time.Time `gorm:"not null;index"`
}
