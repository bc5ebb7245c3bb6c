package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ db sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

const userCols = `id,username,email,password_hash,avatar_url,phone,role,is_active,created_at`

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// ByLogin matches either the username or the email (case-insensitive).
func (r *UserRepo) ByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `
		SELECT `+userCols+` FROM users
		WHERE username = ? OR LOWER(email) = LOWER(?)`, identifier, identifier)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM users WHERE username = ? OR LOWER(email) = LOWER(?)`, username, email)
	return n > 0, err
}

func (r *UserRepo) Create(ctx context.Context, username, email, hash, role string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users(username,email,password_hash,role,created_at,updated_at)
		VALUES(?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`, username, email, hash, role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, avatarURL, phone string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET avatar_url=?, phone=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, avatarURL, phone, id)
	return err
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, err
	}
	out := []domain.User{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+userCols+` FROM users ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	return out, total, err
}

func (r *UserRepo) HasOrders(ctx context.Context, id int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM orders WHERE user_id=?`, id)
	return n > 0, err
}

// RemoveOwned deletes the rows a user owns exclusively: cart lines,
// favorites, addresses, likes, personal notifications and assistant
// conversations.
func (r *UserRepo) RemoveOwned(ctx context.Context, id int64) error {
	for _, q := range []string{
		`DELETE FROM cart_items WHERE user_id=?`,
		`DELETE FROM favorites WHERE user_id=?`,
		`DELETE FROM user_addresses WHERE user_id=?`,
		`DELETE FROM review_likes WHERE user_id=?`,
		`DELETE FROM notification_reads WHERE user_id=?`,
		`DELETE FROM notifications WHERE user_id=?`,
		`DELETE FROM ai_chat_messages WHERE session_id IN (SELECT id FROM ai_chat_sessions WHERE user_id=?)`,
		`DELETE FROM ai_chat_sessions WHERE user_id=?`,
	} {
		if _, err := r.db.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

// UsernameTaken reports whether another user already has username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`, username, exceptID)
	return n > 0, err
}

// AdminUpdate overwrites the fields an admin may edit.
func (r *UserRepo) AdminUpdate(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET username=?, avatar_url=?, phone=?, is_active=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, u.Username, u.AvatarURL, u.Phone, u.Active, u.ID)
	return err
}

// SetPassword stores a new hash and voids any pending reset token.
func (r *UserRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash=?, reset_token_hash=NULL, reset_expires_at=NULL, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, hash, id)
	return err
}

func (r *UserRepo) SetResetToken(ctx context.Context, id int64, tokenHash, expiresAt string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash=?, reset_expires_at=? WHERE id=?`, tokenHash, expiresAt, id)
	return err
}

// ByResetToken finds the active user holding an unexpired reset token.
func (r *UserRepo) ByResetToken(ctx context.Context, tokenHash, now string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `
		SELECT `+userCols+` FROM users
		WHERE reset_token_hash = ? AND reset_expires_at > ? AND is_active = 1`, tokenHash, now)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_active=0, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	return err
}
