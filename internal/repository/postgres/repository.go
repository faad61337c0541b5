package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"mailgate/internal/model"

	_ "github.com/lib/pq"
)

const userColumns = `id, google_id, email, name, timezone, roles, access_token, refresh_token, token_expiry, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (google_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.GoogleID, user.Email, user.Name, user.Timezone,
		encodeRoles(user.Roles), user.AccessToken, user.RefreshToken,
		user.TokenExpiry, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, model.NormalizeEmail(email)))
}

func (r *PostgresUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET google_id=$1, email=$2, name=$3, timezone=$4, roles=$5,
		access_token=$6, refresh_token=$7, token_expiry=$8, updated_at=NOW() WHERE id=$9`
	_, err := r.db.ExecContext(ctx, query,
		user.GoogleID, user.Email, user.Name, user.Timezone,
		encodeRoles(user.Roles), user.AccessToken, user.RefreshToken,
		user.TokenExpiry, user.ID)
	return err
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var roles string
	var expiry sql.NullTime
	err := row.Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.Timezone,
		&roles, &user.AccessToken, &user.RefreshToken, &expiry,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	user.Roles = decodeRoles(roles)
	if expiry.Valid {
		user.TokenExpiry = expiry.Time
	}
	return user, nil
}

// Roles are stored as a comma-joined text column; the set is tiny and never
// queried server-side.
func encodeRoles(roles model.Roles) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func decodeRoles(encoded string) model.Roles {
	if encoded == "" {
		return model.Roles{model.RoleUser}
	}
	var roles model.Roles
	for _, part := range strings.Split(encoded, ",") {
		role := model.Role(strings.TrimSpace(part))
		if model.ValidRole(role) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		roles = model.Roles{model.RoleUser}
	}
	return roles
}

// InitializeDatabase creates the users table if it does not exist.
func InitializeDatabase(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			google_id TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			roles TEXT NOT NULL DEFAULT 'user',
			access_token TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			token_expiry TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, schema)
	return err
}
