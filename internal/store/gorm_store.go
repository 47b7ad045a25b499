package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	dbpkg "roundtable.local/projects/insight-gateway/internal/db"
	"roundtable.local/projects/insight-gateway/internal/meeting"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(driver, dsn string) (*GormStore, error) {
	gormDB, err := dbpkg.OpenGorm(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open gorm store: %w", err)
	}

	store := &GormStore{db: gormDB}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *GormStore) migrate() error {
	return s.db.AutoMigrate(&meetingRow{}, &entryRow{}, &insightRow{}, &actionItemRow{})
}

func (s *GormStore) SaveMeeting(ctx context.Context, rec meeting.Record) error {
	row := meetingRowFrom(rec)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save meeting: %w", err)
	}
	return nil
}

func (s *GormStore) SaveEntry(ctx context.Context, entry meeting.TranscriptEntry) error {
	row := entryRowFrom(entry)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save transcript entry: %w", err)
	}
	return nil
}

func (s *GormStore) SaveInsight(ctx context.Context, insight meeting.Insight) error {
	row := insightRowFrom(insight)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save insight: %w", err)
	}
	return nil
}

func (s *GormStore) SaveActionItem(ctx context.Context, item meeting.ActionItem) error {
	row := actionItemRowFrom(item)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save action item: %w", err)
	}
	return nil
}

func (s *GormStore) LoadMeeting(ctx context.Context, meetingID string) (LoadedMeeting, error) {
	if err := validateMeetingID(meetingID); err != nil {
		return LoadedMeeting{}, err
	}

	var row meetingRow
	err := s.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoadedMeeting{}, ErrNotFound
		}
		return LoadedMeeting{}, fmt.Errorf("get meeting: %w", err)
	}
	loaded := LoadedMeeting{Record: row.toRecord()}

	var entryRows []entryRow
	if err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("sequence ASC").
		Find(&entryRows).Error; err != nil {
		return LoadedMeeting{}, fmt.Errorf("get transcript entries: %w", err)
	}
	for _, r := range entryRows {
		loaded.Entries = append(loaded.Entries, r.toRecord())
	}

	var insightRows []insightRow
	if err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&insightRows).Error; err != nil {
		return LoadedMeeting{}, fmt.Errorf("get insights: %w", err)
	}
	for _, r := range insightRows {
		loaded.Insights = append(loaded.Insights, r.toRecord())
	}

	var itemRows []actionItemRow
	if err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&itemRows).Error; err != nil {
		return LoadedMeeting{}, fmt.Errorf("get action items: %w", err)
	}
	for _, r := range itemRows {
		loaded.ActionItems = append(loaded.ActionItems, r.toRecord())
	}

	return loaded, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
