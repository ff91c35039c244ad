package db

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// Cooldowns returns when each of the given users was last reminded in the
// scope. Users never reminded are absent from the result.
func (s *Store) Cooldowns(scope int64, userIDs []int64) (map[int64]time.Time, error) {
	if len(userIDs) == 0 {
		return map[int64]time.Time{}, nil
	}
	var rows []ReminderCooldown
	err := s.db.Where("scope = ? AND user_id IN ?", scope, userIDs).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("db: get cooldowns scope=%d: %w", scope, err)
	}
	result := make(map[int64]time.Time, len(rows))
	for _, row := range rows {
		result[row.UserID] = row.LastRemindedAt
	}
	return result, nil
}

// SetCooldowns stamps every given user with the reminder time. Called only
// after a notification was actually delivered.
func (s *Store) SetCooldowns(scope int64, userIDs []int64, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]ReminderCooldown, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, ReminderCooldown{Scope: scope, UserID: userID, LastRemindedAt: at.UTC()})
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_reminded_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("db: set cooldowns scope=%d: %w", scope, err)
	}
	return nil
}
