package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/repos"

	"github.com/go-resty/resty/v2"
	"github.com/jmoiron/sqlx"
)

const (
	aiApology       = "Sorry, the assistant is unavailable right now. Please try again later."
	aiNotConfigured = "The assistant is not configured yet. Please contact the store."
	aiHistory       = 10
)

var orderWords = []string{"order", "shipping", "bought", "purchase", "delivery", "status", "refund"}

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=2000"`
}

type ChatInput struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// AIService proxies shopping questions to an OpenAI-compatible chat API
// with store context added to the system prompt. It never fails the
// request: any upstream problem becomes an apology reply.
type AIService struct {
	DB     *sqlx.DB
	Cfg    config.AIConfig
	Now    func() time.Time
	client *resty.Client
}

func NewAIService(db *sqlx.DB, cfg config.AIConfig) *AIService {
	return &AIService{
		DB:     db,
		Cfg:    cfg,
		Now:    time.Now,
		client: resty.New().SetTimeout(cfg.Timeout).SetHeader("Accept", "application/json"),
	}
}

func (s *AIService) productContext(ctx context.Context, question string) string {
	prods, err := repos.NewProductRepo(s.DB).MatchAny(ctx, strings.Fields(question), 5)
	if err != nil || len(prods) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Matching products:\n")
	for _, p := range prods {
		desc := p.ShortDescription
		if desc == "" {
			desc = p.Description
			if r := []rune(desc); len(r) > 50 {
				desc = string(r[:50])
			}
		}
		fmt.Fprintf(&b, "- ID %d, %s, price %s, stock %d, %s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock, desc)
	}
	return b.String()
}

func (s *AIService) orderContext(ctx context.Context, userID int64, question string) string {
	q := strings.ToLower(question)
	asks := false
	for _, w := range orderWords {
		if strings.Contains(q, w) {
			asks = true
			break
		}
	}
	if !asks || userID <= 0 {
		return ""
	}
	orders, err := repos.NewOrderRepo(s.DB).RecentForUser(ctx, userID, 3)
	if err != nil {
		return ""
	}
	if len(orders) == 0 {
		return "The customer has no recent orders.\n"
	}
	var b strings.Builder
	b.WriteString("Customer's recent orders:\n")
	for _, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s x%d", it.ProductName, it.Quantity))
		}
		fmt.Fprintf(&b, "- #%s: %s, total %s, items [%s], placed %s\n",
			o.OrderNumber, o.Status.Text(), o.TotalAmount.StringFixed(2), strings.Join(items, ", "), o.CreatedAt)
	}
	return b.String()
}

func (s *AIService) systemPrompt(ctx context.Context, userID int64, question string) string {
	return "You are the shopping assistant of a furniture store. " +
		"Be professional, warm and concise. Never mention the underlying model or vendor. " +
		"Recommend products by ID and name. Reply in Markdown.\n\n" +
		"Context:\n" + s.productContext(ctx, question) + s.orderContext(ctx, userID, question)
}

// Reply always returns text to show. A non-nil error says why the text is
// a fallback and is meant for logs only.
func (s *AIService) Reply(ctx context.Context, userID int64, in ChatInput) (string, error) {
	if s.Cfg.APIKey == "" {
		return aiNotConfigured, errors.New("ai api key not configured")
	}
	history := in.Messages
	if len(history) > aiHistory {
		history = history[len(history)-aiHistory:]
	}
	question := ""
	if len(history) > 0 {
		question = history[len(history)-1].Content
	}
	msgs := append([]ChatMessage{{Role: "system", Content: s.systemPrompt(ctx, userID, question)}}, history...)

	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.Cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{Model: s.Cfg.Model, Messages: msgs, Temperature: 0.7}).
		SetResult(&out).
		Post(s.Cfg.URL)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("upstream status %d", resp.StatusCode())
	}
	if err == nil && (len(out.Choices) == 0 || out.Choices[0].Message.Content == "") {
		err = errors.New("empty completion")
	}
	if err != nil {
		return aiApology, err
	}
	return out.Choices[0].Message.Content, nil
}
