package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/http/server"
	"storefront/internal/repos"
	"storefront/internal/storage"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app *fiber.App
	db  *sqlx.DB
	cfg config.Config
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		MediaDir:       t.TempDir(),
		JWTSecret:      "test-secret",
		AccessTTL:      time.Hour,
		RefreshTTL:     24 * time.Hour,
		CORSOrigins:    []string{"http://localhost:5173"},
		PaymentBaseURL: "https://pay.test/order/",
		AI:             config.AIConfig{Timeout: time.Second},
		Storage:        config.StorageConfig{Driver: "local", PublicBaseURL: "/media"},
	}
	store := storage.NewLocal(cfg.MediaDir, cfg.Storage.PublicBaseURL)
	return &testServer{app: server.New(cfg, db, store), db: db, cfg: cfg}
}

// call sends a JSON request and decodes the envelope.
func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body=%s", raw)
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	status, env := s.call(t, "POST", "/v1/auth/login", "", fiber.Map{"username": username, "password": "Passw0rd!"})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func (s *testServer) addAddress(t *testing.T, token string) int64 {
	t.Helper()
	status, env := s.call(t, "POST", "/v1/addresses", token, fiber.Map{
		"recipient_name": "Alice Doe",
		"phone":          "+1 555 0100",
		"province":       "MD",
		"city":           "College Park",
		"district":       "Prince George's",
		"detail_address": "8223 Paint Branch Dr",
	})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var a struct {
		ID int64 `json:"id"`
	}
	decode(t, env, &a)
	return a.ID
}

// checkout adds qty of a product to the cart and orders it.
func (s *testServer) checkout(t *testing.T, token string, productID int64, qty int) orderData {
	t.Helper()
	addr := s.addAddress(t, token)
	status, env := s.call(t, "POST", "/v1/cart", token, fiber.Map{"product_id": productID, "quantity": qty})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var cart struct {
		Items []struct {
			ID        int64 `json:"id"`
			ProductID int64 `json:"product_id"`
		} `json:"items"`
	}
	decode(t, env, &cart)
	var ids []int64
	for _, it := range cart.Items {
		if it.ProductID == productID {
			ids = append(ids, it.ID)
		}
	}
	status, env = s.call(t, "POST", "/v1/orders", token, fiber.Map{
		"cart_item_ids": ids, "address_id": addr, "payment_method": "alipay",
	})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var res struct {
		Order   orderData `json:"order"`
		Payment struct {
			PaymentURL string `json:"payment_url"`
		} `json:"payment"`
	}
	decode(t, env, &res)
	require.Equal(t, "https://pay.test/order/"+res.Order.OrderNumber, res.Payment.PaymentURL)
	return res.Order
}

type orderData struct {
	ID          int64   `json:"id"`
	OrderNumber string  `json:"order_number"`
	Status      string  `json:"status"`
	StatusText  string  `json:"status_text"`
	TotalAmount float64 `json:"total_amount"`
	ShippedAt   *string `json:"shipped_at"`
}

func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), "data=%s", env.Data)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs collects the JSON log lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(strings.TrimSpace(line)), &e) == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
