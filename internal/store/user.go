package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"peerlearn.app/server/core/db"
	"peerlearn.app/server/internal/model"
)

const userColumns = `id, username, email, password_hash, email_verified, first_name, last_name,
	profile_picture, experience, created_at, updated_at`

type userStore struct {
	conn db.DBTX
}

func newUserStore(conn db.DBTX) UserStore {
	return &userStore{conn: conn}
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *userStore) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Search matches username, email, first and last name case-insensitively.
func (s *userStore) Search(ctx context.Context, query string, limit int) ([]model.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1
		ORDER BY username
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, email_verified, first_name, last_name, profile_picture, experience)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		user.ID, user.Username, strings.ToLower(user.Email), user.PasswordHash, user.EmailVerified,
		user.FirstName, user.LastName, user.ProfilePicture, user.Experience)
	created, err := scanUser(row)
	if err != nil {
		return mapUserConflict(err)
	}
	*user = *created
	return nil
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	row := s.conn.QueryRow(ctx, `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Username, user.FirstName, user.LastName)
	updated, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return mapUserConflict(err)
	}
	*user = *updated
	return nil
}

func (s *userStore) MarkEmailVerified(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, `UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) SetProfilePicture(ctx context.Context, id int64, key *string) error {
	tag, err := s.conn.Exec(ctx, `UPDATE users SET profile_picture = $2, updated_at = now() WHERE id = $1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := s.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.FirstName, &u.LastName,
		&u.ProfilePicture, &u.Experience, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func mapUserConflict(err error) error {
	switch uniqueConstraint(err) {
	case "":
		return err
	case "users_email_key":
		return ErrDuplicateEmail
	default:
		return ErrDuplicateUsername
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
