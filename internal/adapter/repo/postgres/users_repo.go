package postgres

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// UserRepo tracks submission owners using a minimal pgx pool.
type UserRepo struct{ Pool PgxPool }

// NewUserRepo constructs a UserRepo with the given pool.
func NewUserRepo(p PgxPool) *UserRepo { return &UserRepo{Pool: p} }

// Ensure creates the owner row if it does not exist yet. Submissions call
// this before inserting the job so the foreign key always holds.
func (r *UserRepo) Ensure(ctx domain.Context, ownerID int64) error {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.Ensure")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "users"),
	)
	q := `INSERT INTO users (id, created_at) VALUES ($1,$2) ON CONFLICT (id) DO NOTHING`
	if _, err := r.Pool.Exec(ctx, q, ownerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=user.ensure: %w", err)
	}
	return nil
}

// Count returns the total number of owners seen so far.
func (r *UserRepo) Count(ctx domain.Context) (int64, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.Count")
	defer span.End()
	var count int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("op=user.count: %w", err)
	}
	return count, nil
}
