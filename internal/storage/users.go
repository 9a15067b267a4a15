// ABOUTME: User persistence keyed by identity subject
// ABOUTME: GetOrCreateUser is safe against concurrent first logins
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/models"
	"gorm.io/gorm/clause"
)

// GetOrCreateUser returns the user with sub, creating it on first sight.
// A blank stored email is filled in when one is supplied later.
func (db *DB) GetOrCreateUser(ctx context.Context, sub, email string) (*models.User, error) {
	candidate := models.User{
		ID:        uuid.New(),
		Auth0Sub:  sub,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	err := db.ctx(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "auth0_sub"}}, DoNothing: true}).
		Create(&candidate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	var user models.User
	if err := db.ctx(ctx).Where("auth0_sub = ?", sub).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}

	if user.Email == "" && email != "" {
		if err := db.ctx(ctx).Model(&user).Update("email", email).Error; err != nil {
			return nil, fmt.Errorf("failed to update user email: %w", err)
		}
		user.Email = email
	}
	return &user, nil
}

func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.ctx(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}
