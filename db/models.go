package db

import "time"

// Binding maps a chat user inside one group to a player tag. At most one
// binding exists per (scope, user); two users may bind the same tag.
type Binding struct {
	ID        uint   `gorm:"primaryKey"`
	Scope     int64  `gorm:"not null;uniqueIndex:idx_bindings_scope_user;index:idx_bindings_scope_tag"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_bindings_scope_user"`
	PlayerTag string `gorm:"not null;index:idx_bindings_scope_tag"`
	UserName  string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderCooldown records the last reminder sent to a user in a group so the
// same user is never mentioned twice within the cooldown period.
type ReminderCooldown struct {
	Scope          int64     `gorm:"primaryKey;autoIncrement:false"`
	UserID         int64     `gorm:"primaryKey;autoIncrement:false"`
	LastRemindedAt time.Time `gorm:"not null"`
}
