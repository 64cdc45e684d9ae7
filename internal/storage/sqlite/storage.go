package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// participantRow is the table layout for participants
type participantRow struct {
	RegistrationID string     `gorm:"primaryKey"`
	Name           string     `gorm:"not null"`
	Email          string     `gorm:"uniqueIndex;not null"`
	Attended       bool       `gorm:"not null;default:false"`
	Timestamp      *time.Time `gorm:"column:timestamp"`
	CreatedAt      time.Time  `gorm:"index;not null"`
}

func (participantRow) TableName() string { return "participants" }

func (r *participantRow) toModel() *model.Participant {
	return &model.Participant{
		RegistrationID: model.RegistrationID(r.RegistrationID),
		Name:           r.Name,
		Email:          r.Email,
		Attended:       r.Attended,
		Timestamp:      r.Timestamp,
		CreatedAt:      r.CreatedAt,
	}
}

// sessionRow is the table layout for admin sessions
type sessionRow struct {
	Token     string    `gorm:"primaryKey"`
	IsAdmin   bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (sessionRow) TableName() string { return "admin_sessions" }

// Storage is a SQLite implementation of the storage interface backed by gorm
type Storage struct {
	db *gorm.DB
}

// New opens (or creates) the SQLite database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func New(path string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases shared across callers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&participantRow{}, &sessionRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying database
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) CreateParticipant(ctx context.Context, p *model.Participant) error {
	row := participantRow{
		RegistrationID: string(p.RegistrationID),
		Name:           p.Name,
		Email:          p.Email,
		CreatedAt:      p.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *Storage) GetParticipant(ctx context.Context, id model.RegistrationID) (*model.Participant, error) {
	var row participantRow
	err := s.db.WithContext(ctx).Where("registration_id = ?", string(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return row.toModel(), nil
}

func (s *Storage) MarkAttended(ctx context.Context, id model.RegistrationID, at time.Time) (*model.Participant, error) {
	res := s.db.WithContext(ctx).
		Model(&participantRow{}).
		Where("registration_id = ? AND attended = ?", string(id), false).
		Updates(map[string]any{"attended": true, "timestamp": at})
	if res.Error != nil {
		return nil, fmt.Errorf("mark attended: %w", res.Error)
	}

	p, err := s.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, &model.AlreadyCheckedInError{Participant: p}
	}
	return p, nil
}

func (s *Storage) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	var rows []participantRow
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("registration_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	participants := make([]*model.Participant, len(rows))
	for i := range rows {
		participants[i] = rows[i].toModel()
	}
	return participants, nil
}

func (s *Storage) GetStats(ctx context.Context) (*model.Stats, error) {
	var counts struct {
		Total     int
		CheckedIn int
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) AS total, COUNT(CASE WHEN attended THEN 1 END) AS checked_in FROM participants`).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	return &model.Stats{Total: counts.Total, CheckedIn: counts.CheckedIn}, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AdminSession) error {
	row := sessionRow{
		Token:     session.Token,
		IsAdmin:   session.IsAdmin,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.AdminSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &model.AdminSession{
		Token:     row.Token,
		IsAdmin:   row.IsAdmin,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&sessionRow{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
