package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mailgate/internal/model"
)

func TestInMemoryUserRepository(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	user := model.NewUser("g1", "a@example.com", "A", "tok", "ref", time.Now().Add(time.Hour))
	assert.NoError(t, repo.Create(ctx, user))

	// Email uniqueness
	dup := model.NewUser("g2", "a@example.com", "B", "tok", "ref", time.Now())
	assert.Error(t, repo.Create(ctx, dup))

	found, err := repo.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = repo.FindByGoogleID(ctx, "g1")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Lookup normalizes the address
	found, err = repo.FindByEmail(ctx, "  A@Example.com ")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.Error(t, err)

	user.Name = "Renamed"
	assert.NoError(t, repo.Update(ctx, user))
	found, _ = repo.FindByID(ctx, user.ID)
	assert.Equal(t, "Renamed", found.Name)

	all, err := repo.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.FindByID(ctx, user.ID)
	assert.Error(t, err)
}
