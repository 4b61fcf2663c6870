package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jende/inventory-service/internal/api/http/handlers"
	"github.com/jende/inventory-service/internal/auth"
	"github.com/jende/inventory-service/internal/config"
	"github.com/jende/inventory-service/internal/domain"
	"github.com/jende/inventory-service/internal/mail"
	"github.com/jende/inventory-service/internal/observability"
	"github.com/jende/inventory-service/internal/report"
	"github.com/jende/inventory-service/internal/service"
)

type stubUserRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.User
	seq  int
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		result = append(result, *user)
	}
	return result, nil
}

type stubProductRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Product
	nextSKU int64
	seq     int
}

func (r *stubProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.nextSKU++
	product.ID = fmt.Sprintf("prod-%d", r.seq)
	product.SKU = r.nextSKU
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	clone := *product
	r.byID[product.ID] = &clone
	return nil
}

func (r *stubProductRepo) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[product.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *product
	r.byID[product.ID] = &clone
	return nil
}

func (r *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *product
	return &clone, nil
}

func (r *stubProductRepo) List(_ context.Context) ([]domain.Product, error) {
	return r.ListBySKU(context.Background())
}

func (r *stubProductRepo) ListBySKU(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Product, 0, len(r.byID))
	for sku := int64(1); sku <= r.nextSKU; sku++ {
		for _, product := range r.byID {
			if product.SKU == sku {
				result = append(result, *product)
			}
		}
	}
	return result, nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *stubMailer) {
	t.Helper()

	logger := zap.NewNop()
	cfg := config.Config{
		App: config.AppConfig{Name: "inventory-service", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 120,
			ResetTokenTTLMinutes:  20,
			BcryptCost:            bcrypt.MinCost,
		},
		Mail: config.MailConfig{ResetBaseURL: "http://localhost:3000/reset-password"},
	}

	users := &stubUserRepo{byID: map[string]*domain.User{}}
	products := &stubProductRepo{byID: map[string]*domain.Product{}}
	mailer := &stubMailer{}

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: users,
		Mailer:   mailer,
		Logger:   logger,
	})

	dir := t.TempDir()
	reports := report.NewGenerator(dir, "/productos/", time.Second, 10*time.Second, logger)
	productService := service.NewProductService(service.ProductDependencies{
		ProductRepo: products,
		Reports:     reports,
		Logger:      logger,
		UploadDir:   dir,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("inventory-service", "test", nil, nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Products:       handlers.NewProductsHandler(productService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return app, mailer
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*nethttp.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]any
	if json.Unmarshal(data, &parsed) != nil {
		return nil
	}
	return parsed
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func registerUser(t *testing.T, app *fiber.App) {
	t.Helper()
	resp, _ := doJSON(t, app, nethttp.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ana", "email": "ana@jende.co", "password": "secreta123",
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
}

func loginToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := doJSON(t, app, nethttp.MethodPost, "/api/auth/login", map[string]string{
		"email": "ana@jende.co", "password": "secreta123",
	})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	registerUser(t, app)

	resp, body := doJSON(t, app, nethttp.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ana bis", "email": "ana@jende.co", "password": "otra",
	})
	require.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	require.Equal(t, "CONFLICT", errorCode(body))

	loginToken(t, app)

	resp, body = doJSON(t, app, nethttp.MethodPost, "/api/auth/login", map[string]string{
		"email": "ana@jende.co", "password": "equivocada",
	})
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", errorCode(body))

	resp, body = doJSON(t, app, nethttp.MethodPost, "/api/auth/login", map[string]string{
		"email": "nadie@jende.co", "password": "secreta123",
	})
	require.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestMeRequiresToken(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	registerUser(t, app)
	token := loginToken(t, app)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, "ana@jende.co", body["email"])

	req = httptest.NewRequest(nethttp.MethodGet, "/api/auth/me", nil)
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(nethttp.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordRecoveryEndpoints(t *testing.T) {
	t.Parallel()

	app, mailer := newTestApp(t)
	registerUser(t, app)

	resp, _ := doJSON(t, app, nethttp.MethodPost, "/api/auth/recuperar", map[string]string{
		"email": "ana@jende.co",
	})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Len(t, mailer.sent, 1)

	resp, body := doJSON(t, app, nethttp.MethodPost, "/api/auth/recuperar", map[string]string{
		"email": "nadie@jende.co",
	})
	require.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	resp, body = doJSON(t, app, nethttp.MethodPost, "/api/auth/reset-password", map[string]string{
		"token": "garbage", "newPassword": "nueva",
	})
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "INVALID_TOKEN", errorCode(body))
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, val := range fields {
		require.NoError(t, w.WriteField(key, val))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func createProduct(t *testing.T, app *fiber.App, fields map[string]string) map[string]any {
	t.Helper()
	body, contentType := multipartBody(t, fields)
	req := httptest.NewRequest(nethttp.MethodPost, "/api/productos/", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	return decodeBody(t, resp)
}

func TestProductEndpoints(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	cafe := createProduct(t, app, map[string]string{"name": "Café", "price": "8.50", "stock": "20"})
	require.Equal(t, float64(1), cafe["sku"])
	te := createProduct(t, app, map[string]string{"name": "Té", "price": "6.00", "stock": "15"})
	require.Equal(t, float64(2), te["sku"])

	req := httptest.NewRequest(nethttp.MethodGet, "/api/productos/", nil)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var listed []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed, 2)

	// Update only the price; everything else must survive.
	body, contentType := multipartBody(t, map[string]string{"price": "9.00"})
	req = httptest.NewRequest(nethttp.MethodPut, "/api/productos/"+cafe["id"].(string), body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)
	require.Equal(t, 9.0, updated["price"])
	require.Equal(t, "Café", updated["name"])
	require.Equal(t, float64(20), updated["stock"])

	req = httptest.NewRequest(nethttp.MethodDelete, "/api/productos/"+cafe["id"].(string), nil)
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(nethttp.MethodGet, "/api/productos/", nil)
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()
	listed = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	require.Equal(t, "Té", listed[0]["name"])
}

func TestProductValidationErrors(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{"price": "8.50"})
	req := httptest.NewRequest(nethttp.MethodPost, "/api/productos/", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_FAILED", errorCode(decodeBody(t, resp)))

	body, contentType = multipartBody(t, map[string]string{"name": "Café", "price": "mucho"})
	req = httptest.NewRequest(nethttp.MethodPost, "/api/productos/", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_FAILED", errorCode(decodeBody(t, resp)))

	body, contentType = multipartBody(t, map[string]string{"name": "Otro"})
	req = httptest.NewRequest(nethttp.MethodPut, "/api/productos/no-such-id", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", errorCode(decodeBody(t, resp)))
}

func TestInventoryReportEndpoint(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	createProduct(t, app, map[string]string{"name": "Café", "price": "8.50"})

	req := httptest.NewRequest(nethttp.MethodGet, "/api/productos/pdf", nil)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "jende_inventario.pdf")

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
