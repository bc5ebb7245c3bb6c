package services

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	defaultChatTitle = "New chat"
	chatTitleChars   = 30
)

type SessionInput struct {
	Title string `json:"title" validate:"max=100"`
}

func (s *AIService) stamp() string { return s.Now().UTC().Format(timeLayout) }

func (s *AIService) CreateSession(ctx context.Context, userID int64, in SessionInput) (domain.ChatSession, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultChatTitle
	}
	now := s.stamp()
	chats := repos.NewChatRepo(s.DB)
	sess := domain.ChatSession{UserID: userID, Token: uuid.NewString(), Title: title, CreatedAt: now, LastActiveAt: now}
	id, err := chats.CreateSession(ctx, sess)
	if err != nil {
		return domain.ChatSession{}, err
	}
	sess.ID = id
	return sess, nil
}

func (s *AIService) Sessions(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	return repos.NewChatRepo(s.DB).Sessions(ctx, userID)
}

func (s *AIService) session(ctx context.Context, ext sqlx.ExtContext, userID int64, token string) (domain.ChatSession, error) {
	sess, err := repos.NewChatRepo(ext).Session(ctx, userID, token)
	if err != nil && errors.Is(err, repos.ErrNotFound) {
		return sess, NotFound("chat session not found")
	}
	return sess, err
}

func (s *AIService) DeleteSession(ctx context.Context, userID int64, token string) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		sess, err := s.session(ctx, tx, userID, token)
		if err != nil {
			return err
		}
		return repos.NewChatRepo(tx).DeleteSession(ctx, sess.ID)
	})
}

func (s *AIService) Messages(ctx context.Context, userID int64, token string) ([]domain.ChatEntry, error) {
	sess, err := s.session(ctx, s.DB, userID, token)
	if err != nil {
		return nil, err
	}
	return repos.NewChatRepo(s.DB).Messages(ctx, sess.ID)
}

// ChatTurn is the stored assistant reply. Fallback is set when the reply
// is the apology text and says why.
type ChatTurn struct {
	Reply    domain.ChatEntry `json:"reply"`
	Fallback error            `json:"-"`
}

type TurnInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Converse appends a user message to a stored session, asks the assistant
// with the session history and stores the answer. The first message of an
// untitled session becomes its title.
func (s *AIService) Converse(ctx context.Context, userID int64, token string, in TurnInput) (ChatTurn, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return ChatTurn{}, Invalid("content is required")
	}
	chats := repos.NewChatRepo(s.DB)
	sess, err := s.session(ctx, s.DB, userID, token)
	if err != nil {
		return ChatTurn{}, err
	}
	if _, err := chats.AddMessage(ctx, domain.ChatEntry{SessionID: sess.ID, Role: "user", Content: content, CreatedAt: s.stamp()}); err != nil {
		return ChatTurn{}, err
	}
	stored, err := chats.Messages(ctx, sess.ID)
	if err != nil {
		return ChatTurn{}, err
	}
	history := make([]ChatMessage, 0, len(stored))
	for _, m := range stored {
		history = append(history, ChatMessage{Role: m.Role, Content: m.Content})
	}

	// no transaction is held across the upstream call
	text, fallback := s.Reply(ctx, userID, ChatInput{Messages: history})

	title := sess.Title
	if title == defaultChatTitle {
		title = content
		if r := []rune(title); len(r) > chatTitleChars {
			title = string(r[:chatTitleChars])
		}
	}
	reply := domain.ChatEntry{SessionID: sess.ID, Role: "assistant", Content: text, CreatedAt: s.stamp()}
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		tc := repos.NewChatRepo(tx)
		id, err := tc.AddMessage(ctx, reply)
		if err != nil {
			return err
		}
		reply.ID = id
		return tc.Touch(ctx, sess.ID, title, reply.CreatedAt)
	})
	if err != nil {
		return ChatTurn{}, err
	}
	return ChatTurn{Reply: reply, Fallback: fallback}, nil
}
