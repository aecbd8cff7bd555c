// Package pgstore implements the persistence gateway on PostgreSQL through
// GORM.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

const (
	singleCountSQL = `SELECT answers ->> ? AS value, COUNT(*) AS count
FROM onboarding
WHERE answers ->> ? IS NOT NULL
GROUP BY value
ORDER BY count DESC`

	multiCountSQL = `SELECT elem AS value, COUNT(*) AS count
FROM onboarding,
	jsonb_array_elements_text(
		CASE WHEN jsonb_typeof(answers -> ?) = 'array' THEN answers -> ? ELSE '[]'::jsonb END
	) AS elem
GROUP BY elem
ORDER BY count DESC`
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the tables. With uniqueUser a unique index on
// onboarding.user_id backs the upsert policy.
func (s *Store) Migrate(uniqueUser bool) error {
	if err := s.db.AutoMigrate(&ResponseRow{}, &UserRow{}, &models.SystemLog{}); err != nil {
		return err
	}
	if uniqueUser {
		return s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_onboarding_user_unique ON onboarding (user_id)`).Error
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, resp *models.OnboardingResponse) (string, error) {
	row, err := toResponseRow(resp)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("insert onboarding: %w", err)
	}
	return row.ID.String(), nil
}

func (s *Store) Upsert(ctx context.Context, resp *models.OnboardingResponse) (*models.OnboardingResponse, error) {
	row, err := toResponseRow(resp)
	if err != nil {
		return nil, err
	}

	var stored ResponseRow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", resp.UserID).
			Order("created_at DESC").
			First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			stored = *row
			return nil
		}
		if err != nil {
			return err
		}

		stored.Username = row.Username
		stored.QuestionSet = row.QuestionSet
		stored.Answers = row.Answers
		stored.FormattedAnswers = row.FormattedAnswers
		stored.UpdatedAt = row.UpdatedAt
		return tx.Model(&ResponseRow{}).Where("id = ?", stored.ID).Updates(map[string]interface{}{
			"username":          stored.Username,
			"question_set":      stored.QuestionSet,
			"answers":           stored.Answers,
			"formatted_answers": stored.FormattedAnswers,
			"updated_at":        stored.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert onboarding: %w", err)
	}

	out, err := stored.model()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.OnboardingResponse, error) {
	rowID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	var row ResponseRow
	err = s.db.WithContext(ctx).First(&row, "id = ?", rowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find onboarding %s: %w", id, err)
	}
	out, err := row.model()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) FindByUser(ctx context.Context, userID string, skip, limit int) ([]models.OnboardingResponse, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&ResponseRow{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count user onboardings: %w", err)
	}

	var rows []ResponseRow
	if err := query.Order("created_at DESC").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("find user onboardings: %w", err)
	}
	out, err := toModels(rows)
	return out, total, err
}

func (s *Store) Recent(ctx context.Context, limit int) ([]models.OnboardingResponse, error) {
	var rows []ResponseRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find recent onboardings: %w", err)
	}
	return toModels(rows)
}

func toModels(rows []ResponseRow) ([]models.OnboardingResponse, error) {
	out := make([]models.OnboardingResponse, len(rows))
	for i := range rows {
		m, err := rows[i].model()
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&ResponseRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count onboardings: %w", err)
	}
	return n, nil
}

func (s *Store) CountByAnswer(ctx context.Context, key string, multi bool) ([]models.ValueCount, error) {
	sql := singleCountSQL
	if multi {
		sql = multiCountSQL
	}
	out := []models.ValueCount{}
	if err := s.db.WithContext(ctx).Raw(sql, key, key).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("count %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	row := toUserRow(u)
	err := s.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = row.ID.String()
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, "id = ?", userID)
}

func (s *Store) FindUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return s.findUser(ctx, "firebase_uid = ?", uid)
}

func (s *Store) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var row UserRow
	err := s.db.WithContext(ctx).First(&row, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.model(), nil
}

func (s *Store) MarkOnboardingComplete(ctx context.Context, id string, at time.Time) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return store.ErrNotFound
	}
	result := s.db.WithContext(ctx).Model(&UserRow{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"has_completed_onboarding": true,
			"updated_at":               at,
		})
	if result.Error != nil {
		return fmt.Errorf("mark onboarding complete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) WriteLogs(ctx context.Context, logs []models.SystemLog) error {
	if len(logs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(logs, 50).Error
}

func (s *Store) PurgeLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Describe(ctx context.Context) (*models.DatabaseInfo, error) {
	db := s.db.WithContext(ctx)
	tables, err := db.Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	info := &models.DatabaseInfo{
		Driver:      "postgres",
		Database:    db.Migrator().CurrentDatabase(),
		Collections: make([]models.CollectionInfo, 0, len(tables)),
	}
	for _, name := range tables {
		c := models.CollectionInfo{Name: name, Type: "table", Count: -1}
		var n int64
		if err := db.Table(name).Count(&n).Error; err == nil {
			c.Count = n
		}
		info.Collections = append(info.Collections, c)
	}
	return info, nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
