package store

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ieltsprep/pkg/domain"
)

// GormStore implements Store using GORM over a local SQLite file.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &ProgressModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "password_hash"}),
	}).Create(&model).Error
}

// HasUsername checks if a username is taken.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetProgress returns the progress record for one user and practice set.
func (s *GormStore) GetProgress(userID, practiceSetID string) (domain.Progress, bool, error) {
	var model ProgressModel
	err := s.db.Where("user_id = ? AND practice_set_id = ?", userID, practiceSetID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Progress{}, false, nil
		}
		return domain.Progress{}, false, err
	}
	return progressFromModel(model), true, nil
}

// SaveProgress upserts a progress record keyed by (user, practice set).
func (s *GormStore) SaveProgress(p domain.Progress) error {
	model := progressToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "practice_set_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score_fitb", "score_tfng", "score_mh", "date_attempted"}),
	}).Create(&model).Error
}

// ListProgressByUser returns all progress for a user, newest attempt first.
func (s *GormStore) ListProgressByUser(userID string) ([]domain.Progress, error) {
	var models []ProgressModel
	if err := s.db.Where("user_id = ?", userID).Order("date_attempted DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Progress, 0, len(models))
	for _, m := range models {
		res = append(res, progressFromModel(m))
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func progressToModel(p domain.Progress) ProgressModel {
	return ProgressModel{
		UserID:        p.UserID,
		PracticeSetID: p.PracticeSetID,
		ScoreFITB:     p.ScoreFITB,
		ScoreTFNG:     p.ScoreTFNG,
		ScoreMH:       p.ScoreMH,
		DateAttempted: p.DateAttempted,
	}
}

func progressFromModel(m ProgressModel) domain.Progress {
	return domain.Progress{
		UserID:        m.UserID,
		PracticeSetID: m.PracticeSetID,
		ScoreFITB:     m.ScoreFITB,
		ScoreTFNG:     m.ScoreTFNG,
		ScoreMH:       m.ScoreMH,
		DateAttempted: m.DateAttempted,
	}
}
