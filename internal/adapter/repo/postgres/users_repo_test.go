package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/repo/postgres"
)

func TestUserRepo_Ensure(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewUserRepo(pool)

	require.NoError(t, repo.Ensure(context.Background(), 42))

	pool.execErr = assert.AnError
	err := repo.Ensure(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=user.ensure")
}

func TestUserRepo_Count(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = 3
		return nil
	}}}
	repo := postgres.NewUserRepo(pool)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
