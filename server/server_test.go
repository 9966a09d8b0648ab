package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Shared test fixtures for the handler tests. Tokens map to identities via a
// stub verifier; the user store is an in-memory map.

const (
	buyerToken  = "buyer-token"
	adminToken  = "admin-token"
	ghostToken  = "ghost-token"
	buyerUserID = "user-1"
	adminUserID = "admin-1"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	switch token {
	case buyerToken:
		return &auth.Claims{Subject: "fb-buyer", Email: "buyer@example.com"}, nil
	case adminToken:
		return &auth.Claims{Subject: "fb-admin", Email: "admin@example.com"}, nil
	case ghostToken:
		return &auth.Claims{Subject: "fb-ghost"}, nil
	default:
		return nil, apperrors.ErrForbidden
	}
}

type memUserStore struct {
	byUID map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byUID: map[string]*models.User{
		"fb-buyer": {ID: buyerUserID, FirebaseUID: "fb-buyer", FirstName: "Amina"},
		"fb-admin": {ID: adminUserID, FirebaseUID: "fb-admin", IsAdmin: true},
	}}
}

func (s *memUserStore) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	u, ok := s.byUID[uid]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) Create(ctx context.Context, user *models.User) error {
	s.byUID[user.FirebaseUID] = user
	return nil
}

func (s *memUserStore) Update(ctx context.Context, user *models.User) error {
	s.byUID[user.FirebaseUID] = user
	return nil
}

func (s *memUserStore) SoftDelete(ctx context.Context, id string) error {
	for uid, u := range s.byUID {
		if u.ID == id {
			delete(s.byUID, uid)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeEngine keeps created orders in memory so list/mutate paths behave like
// the real engine at the interface boundary.
type fakeEngine struct {
	orders    map[string]*models.Order
	createErr error
	seenIdem  map[string]bool
	events    []*repository.OrderEvent
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		orders:   make(map[string]*models.Order),
		seenIdem: make(map[string]bool),
	}
}

func (e *fakeEngine) Create(ctx context.Context, user *models.User, shipping models.ShippingDetails, paymentMethod string, items []models.OrderItem, total float64, idemKey string) (string, error) {
	if e.createErr != nil {
		return "", e.createErr
	}
	if len(items) == 0 || shipping.Empty() {
		return "", apperrors.ErrValidation
	}
	if idemKey != "" {
		if e.seenIdem[idemKey] {
			return "", apperrors.ErrDuplicateRequest
		}
		e.seenIdem[idemKey] = true
	}
	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		PaymentMethod: paymentMethod,
		TotalPrice:    total,
		Status:        "placed",
		Shipping:      shipping,
		Items:         items,
	}
	e.orders[order.ID] = order
	return order.ID, nil
}

func (e *fakeEngine) owned(orderID string, requester *models.User) (*models.Order, error) {
	o, ok := e.orders[orderID]
	if !ok || o.UserID != requester.ID {
		return nil, apperrors.ErrNotFoundOrUnauthorized
	}
	return o, nil
}

func (e *fakeEngine) UpdateItem(ctx context.Context, orderID string, requester *models.User, productID string, quantity int) error {
	_, err := e.owned(orderID, requester)
	return err
}

func (e *fakeEngine) DeleteItem(ctx context.Context, orderID string, requester *models.User, productID string) error {
	_, err := e.owned(orderID, requester)
	return err
}

func (e *fakeEngine) Cancel(ctx context.Context, orderID string, requester *models.User) error {
	o, err := e.owned(orderID, requester)
	if err != nil {
		return err
	}
	o.Status = "cancelled"
	return nil
}

func (e *fakeEngine) OrderAgain(ctx context.Context, orderID string, requester *models.User) error {
	o, err := e.owned(orderID, requester)
	if err != nil {
		return err
	}
	if o.Status == "placed" {
		return apperrors.ErrInvalidState
	}
	o.Status = "placed"
	return nil
}

func (e *fakeEngine) ListForUser(ctx context.Context, user *models.User) ([]models.Order, error) {
	var out []models.Order
	for _, o := range e.orders {
		if o.UserID == user.ID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (e *fakeEngine) ListAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range e.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (e *fakeEngine) SetStatus(ctx context.Context, orderID, status string, actor *models.User) error {
	o, ok := e.orders[orderID]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.Status = status
	e.events = append(e.events, &repository.OrderEvent{
		Action: "status_changed", OrderID: orderID, Actor: actor.ID,
	})
	return nil
}

func (e *fakeEngine) Events(ctx context.Context, orderID string, limit int64) ([]*repository.OrderEvent, error) {
	var out []*repository.OrderEvent
	for _, ev := range e.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeCarts struct {
	quantities map[string]int // userID/productID
	removed    []string
	lines      []models.CartLine
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{quantities: make(map[string]int)}
}

func (c *fakeCarts) AddOrUpdate(ctx context.Context, userID, productID string, quantity int) error {
	c.quantities[userID+"/"+productID] = quantity
	return nil
}

func (c *fakeCarts) Remove(ctx context.Context, userID, productID string) error {
	c.removed = append(c.removed, userID+"/"+productID)
	return nil
}

func (c *fakeCarts) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	c.quantities[userID+"/"+productID] = quantity
	return nil
}

func (c *fakeCarts) List(ctx context.Context, userID string) ([]models.CartLine, error) {
	return c.lines, nil
}

type fakeProducts struct {
	byID map[string]*models.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byID: make(map[string]*models.Product)}
}

func (p *fakeProducts) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product, ok := p.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return product, nil
}

func (p *fakeProducts) List(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, product := range p.byID {
		out = append(out, *product)
	}
	return out, nil
}

func (p *fakeProducts) Create(ctx context.Context, product *models.Product) error {
	p.byID[product.ID] = product
	return nil
}

func (p *fakeProducts) Update(ctx context.Context, product *models.Product) error {
	if _, ok := p.byID[product.ID]; !ok {
		return apperrors.ErrNotFound
	}
	p.byID[product.ID] = product
	return nil
}

func (p *fakeProducts) Delete(ctx context.Context, id string) error {
	if _, ok := p.byID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(p.byID, id)
	return nil
}

type testEnv struct {
	srv      *Server
	engine   *fakeEngine
	carts    *fakeCarts
	products *fakeProducts
	users    *memUserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	users := newMemUserStore()
	engine := newFakeEngine()
	carts := newFakeCarts()
	products := newFakeProducts()

	mw := auth.NewMiddleware(stubVerifier{}, users, nil, logger, false)
	accounts := auth.NewService(users, nil, logger)

	srv := New(&config.Config{}, logger, Deps{
		Accounts: accounts,
		AuthMW:   mw,
		Orders:   engine,
		Carts:    carts,
		Products: products,
	})
	srv.SetupRoutes()

	return &testEnv{srv: srv, engine: engine, carts: carts, products: products, users: users}
}

func (env *testEnv) request(method, path, token, body string, headers ...[2]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		req.Header.Set(h[0], h[1])
	}
	w := httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, req)
	return w
}
