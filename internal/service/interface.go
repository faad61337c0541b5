package service

import (
	"context"
	"time"

	"mailgate/internal/model"
)

type AuthService interface {
	GetOrCreateUser(ctx context.Context, googleID, email, name, accessToken, refreshToken string, tokenExpiry time.Time) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID, name, timezone string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}
