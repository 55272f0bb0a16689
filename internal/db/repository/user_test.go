package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curtainbe/internal/db"
	"curtainbe/internal/domain"
)

func TestUserRepo_CreateAndLookups(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewUserRepo(writeDB)
	ctx := context.Background()

	sub := "0000-0002-1825-0097"
	created, err := repo.Create(ctx, &domain.User{Username: "jane", ORCIDSub: &sub})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsStaff)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", byID.Username)
	require.NotNil(t, byID.ORCIDSub)
	assert.Equal(t, sub, *byID.ORCIDSub)

	byName, err := repo.GetByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	bySub, err := repo.GetBySubject(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySub.ID)
}

func TestUserRepo_MissingUsername(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewUserRepo(writeDB)

	_, err := repo.Create(context.Background(), &domain.User{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewUserRepo(writeDB)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.User{Username: "jane"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Username: "jane"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestUserRepo_NotFound(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewUserRepo(writeDB)

	_, err := repo.GetBySubject(context.Background(), "unknown")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}
