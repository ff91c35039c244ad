package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotBound reports a lookup for a user with no binding in the scope. It is
// a valid empty result, not a storage failure.
var ErrNotBound = errors.New("no binding for user in this scope")

// UpsertBinding stores a binding, superseding any previous tag the user had
// bound in the same scope.
func (s *Store) UpsertBinding(b Binding) (Binding, error) {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"player_tag", "user_name", "updated_at"}),
	}).Create(&b).Error
	if err != nil {
		return Binding{}, fmt.Errorf("db: upsert binding scope=%d user=%d: %w", b.Scope, b.UserID, err)
	}

	return s.GetBinding(b.Scope, b.UserID)
}

// DeleteBinding removes the user's binding. It reports whether one existed;
// deleting an absent binding is not an error.
func (s *Store) DeleteBinding(scope, userID int64) (bool, error) {
	res := s.db.Where("scope = ? AND user_id = ?", scope, userID).Delete(&Binding{})
	if res.Error != nil {
		return false, fmt.Errorf("db: delete binding scope=%d user=%d: %w", scope, userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetBinding returns the user's current binding or ErrNotBound.
func (s *Store) GetBinding(scope, userID int64) (Binding, error) {
	var b Binding
	err := s.db.Where("scope = ? AND user_id = ?", scope, userID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Binding{}, ErrNotBound
	}
	if err != nil {
		return Binding{}, fmt.Errorf("db: get binding scope=%d user=%d: %w", scope, userID, err)
	}
	return b, nil
}

// ListBindings returns every binding in the scope.
func (s *Store) ListBindings(scope int64) ([]Binding, error) {
	var bindings []Binding
	if err := s.db.Where("scope = ?", scope).Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("db: list bindings scope=%d: %w", scope, err)
	}
	return bindings, nil
}

// ListBindingsForTags returns the bindings in the scope whose player tag is in
// tags. Used by the reminder tick to resolve roster members to chat users.
func (s *Store) ListBindingsForTags(scope int64, tags []string) ([]Binding, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var bindings []Binding
	err := s.db.Where("scope = ? AND player_tag IN ?", scope, tags).Find(&bindings).Error
	if err != nil {
		return nil, fmt.Errorf("db: list bindings for tags scope=%d: %w", scope, err)
	}
	return bindings, nil
}

// ListScopes returns every group that has at least one binding.
func (s *Store) ListScopes() ([]int64, error) {
	var scopes []int64
	err := s.db.Model(&Binding{}).Distinct("scope").Pluck("scope", &scopes).Error
	if err != nil {
		return nil, fmt.Errorf("db: list scopes: %w", err)
	}
	return scopes, nil
}
