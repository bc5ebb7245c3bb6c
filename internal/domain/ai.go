package domain

type ChatSession struct {
	ID           int64  `db:"id" json:"id"`
	UserID       int64  `db:"user_id" json:"-"`
	Token        string `db:"session_token" json:"session_token"`
	Title        string `db:"title" json:"title"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	LastActiveAt string `db:"last_active_at" json:"last_active_at"`
}

type ChatEntry struct {
	ID        int64  `db:"id" json:"id"`
	SessionID int64  `db:"session_id" json:"-"`
	Role      string `db:"role" json:"role"` // user | assistant
	Content   string `db:"content" json:"content"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
