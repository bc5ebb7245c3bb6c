package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ChatRepo struct{ db sqlx.ExtContext }

func NewChatRepo(db sqlx.ExtContext) *ChatRepo { return &ChatRepo{db: db} }

const chatSessionCols = `id,user_id,session_token,title,created_at,last_active_at`

func (r *ChatRepo) CreateSession(ctx context.Context, s domain.ChatSession) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_chat_sessions(user_id,session_token,title,created_at,last_active_at)
		VALUES(?,?,?,?,?)`, s.UserID, s.Token, s.Title, s.CreatedAt, s.LastActiveAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Sessions lists a user's conversations, most recently active first.
func (r *ChatRepo) Sessions(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	out := []domain.ChatSession{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+chatSessionCols+` FROM ai_chat_sessions
		WHERE user_id = ? ORDER BY last_active_at DESC, id DESC`, userID)
	return out, err
}

// Session looks a conversation up by token within one user's sessions.
func (r *ChatRepo) Session(ctx context.Context, userID int64, token string) (domain.ChatSession, error) {
	var s domain.ChatSession
	err := sqlx.GetContext(ctx, r.db, &s, `
		SELECT `+chatSessionCols+` FROM ai_chat_sessions
		WHERE user_id = ? AND session_token = ?`, userID, token)
	return s, err
}

func (r *ChatRepo) Touch(ctx context.Context, id int64, title, now string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ai_chat_sessions SET title = ?, last_active_at = ? WHERE id = ?`, title, now, id)
	return err
}

// DeleteSession removes a session and its messages.
func (r *ChatRepo) DeleteSession(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ai_chat_messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM ai_chat_sessions WHERE id = ?`, id)
	return err
}

func (r *ChatRepo) AddMessage(ctx context.Context, m domain.ChatEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_chat_messages(session_id,role,content,created_at) VALUES(?,?,?,?)`,
		m.SessionID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Messages returns a session's messages in the order they were written.
func (r *ChatRepo) Messages(ctx context.Context, sessionID int64) ([]domain.ChatEntry, error) {
	out := []domain.ChatEntry{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id,session_id,role,content,created_at FROM ai_chat_messages
		WHERE session_id = ? ORDER BY id`, sessionID)
	return out, err
}
