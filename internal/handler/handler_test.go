package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finance-service/internal/events"
	"github.com/Dan9191/finance-service/internal/repository/memory"
	"github.com/Dan9191/finance-service/internal/service"
)

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.New()
	auth := service.NewAuthService(store, logger, "test-secret", time.Hour)
	h := NewHandler(
		auth,
		service.NewCategoryService(store, logger),
		service.NewTransactionService(store, events.NopPublisher{}, logger),
		store,
		logger,
	)
	return &testServer{t: t, router: NewRouter(h, auth)}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// login registers a user and returns their access token.
func (s *testServer) login(email string) string {
	s.t.Helper()
	rr := s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "Test User", "email": email, "password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(s.t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(s.t, out.AccessToken)
	return out.AccessToken
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ana@example.com", body["email"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, rr.Body.String(), "secret123")

	rr = s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "Ana", "email": "ANA@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(http.MethodPost, "/users/register", "", map[string]string{
		"name": "Ana", "email": "b@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body = decodeBody(t, rr)
	assert.Equal(t, float64(400), body["statusCode"])
	assert.Equal(t, "Bad Request", body["error"])
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.login("u@example.com")

	rr := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "u@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, rr)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/users/me", "/categories", "/transactions"} {
		rr := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		assert.Equal(t, "token not provided", decodeBody(t, rr)["message"])
	}

	rr := s.do(http.MethodGet, "/transactions", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid token", decodeBody(t, rr)["message"])
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	token := s.login("me@example.com")

	rr := s.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "me@example.com", decodeBody(t, rr)["email"])

	rr = s.do(http.MethodDelete, "/users/me", token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The token is still well formed but its owner is gone.
	rr = s.do(http.MethodPost, "/transactions", token, map[string]any{
		"description": "x", "amount": 1, "type": "income", "date": "2024-01-01",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTransactions_SummaryFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login("flow@example.com")

	rr := s.do(http.MethodPost, "/categories", token, map[string]any{"name": "Salary"})
	require.Equal(t, http.StatusCreated, rr.Code)
	categoryID := decodeBody(t, rr)["id"].(string)

	rr = s.do(http.MethodPost, "/transactions", token, map[string]any{
		"description": "January pay",
		"amount":      3500,
		"type":        "income",
		"date":        "2024-01-15",
		"categoryId":  categoryID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody(t, rr)
	assert.Equal(t, 3500.0, created["amount"])
	assert.Equal(t, "2024-01-15", created["date"])
	assert.Equal(t, "Salary", created["category"].(map[string]any)["name"])

	rr = s.do(http.MethodPost, "/transactions", token, map[string]any{
		"description": "Rent",
		"amount":      "1200.00",
		"type":        "expense",
		"date":        "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalIncome":3500.00`)
	assert.Contains(t, rr.Body.String(), `"totalExpense":1200.00`)
	assert.Contains(t, rr.Body.String(), `"balance":2300.00`)

	rr = s.do(http.MethodGet, "/transactions?type=income", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decodeBody(t, rr)
	assert.Len(t, summary["transactions"], 1)
	assert.Equal(t, 0.0, summary["totalExpense"])

	rr = s.do(http.MethodGet, "/transactions?startDate=2024-01-11&endDate=2024-01-31", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["transactions"], 1)

	rr = s.do(http.MethodGet, "/transactions?categoryId="+categoryID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["transactions"], 1)
}

func TestTransactions_EmptySummary(t *testing.T) {
	s := newTestServer(t)
	token := s.login("empty@example.com")

	rr := s.do(http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"totalIncome":0,"totalExpense":0,"balance":0,"transactions":[]}`,
		rr.Body.String())
}

func TestTransactions_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.login("v@example.com")

	tests := []struct {
		name string
		body any
	}{
		{"empty body", ""},
		{"malformed json", `{"description":`},
		{"zero amount", map[string]any{"description": "x", "amount": 0, "type": "income", "date": "2024-01-01"}},
		{"negative amount", map[string]any{"description": "x", "amount": -5, "type": "income", "date": "2024-01-01"}},
		{"three decimals", map[string]any{"description": "x", "amount": 1.005, "type": "income", "date": "2024-01-01"}},
		{"bad type", map[string]any{"description": "x", "amount": 1, "type": "transfer", "date": "2024-01-01"}},
		{"bad date", map[string]any{"description": "x", "amount": 1, "type": "income", "date": "2024-02-30"}},
		{"missing description", map[string]any{"amount": 1, "type": "income", "date": "2024-01-01"}},
		{"owner in body", map[string]any{"description": "x", "amount": 1, "type": "income", "date": "2024-01-01", "userId": "someone"}},
		{"unknown category", map[string]any{"description": "x", "amount": 1, "type": "income", "date": "2024-01-01", "categoryId": "11111111-1111-1111-1111-111111111111"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(http.MethodPost, "/transactions", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	for _, query := range []string{"?type=transfer", "?startDate=01-01-2024", "?categoryId=nope"} {
		rr := s.do(http.MethodGet, "/transactions"+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}

func TestTransactions_Ownership(t *testing.T) {
	s := newTestServer(t)
	alice := s.login("alice@example.com")
	bob := s.login("bob@example.com")

	rr := s.do(http.MethodPost, "/transactions", alice, map[string]any{
		"description": "mine", "amount": 10, "type": "expense", "date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeBody(t, rr)["id"].(string)

	rr = s.do(http.MethodGet, "/transactions/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = s.do(http.MethodPatch, "/transactions/"+id, bob, map[string]any{"amount": 1})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = s.do(http.MethodDelete, "/transactions/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodGet, "/transactions/00000000-0000-0000-0000-000000000000", alice, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = s.do(http.MethodGet, "/transactions/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(http.MethodGet, "/transactions", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody(t, rr)["transactions"])
}

func TestTransactions_PatchAndDelete(t *testing.T) {
	s := newTestServer(t)
	token := s.login("p@example.com")

	rr := s.do(http.MethodPost, "/transactions", token, map[string]any{
		"description": "coffee", "amount": 4.5, "type": "expense", "date": "2024-05-01", "notes": "oat milk",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeBody(t, rr)["id"].(string)

	rr = s.do(http.MethodPatch, "/transactions/"+id, token, map[string]any{"amount": 5, "notes": nil})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	patched := decodeBody(t, rr)
	assert.Equal(t, 5.0, patched["amount"])
	assert.Equal(t, "coffee", patched["description"])
	assert.NotContains(t, patched, "notes")

	rr = s.do(http.MethodPatch, "/transactions/"+id, token, map[string]any{"userId": "other"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodDelete, "/transactions/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(http.MethodGet, "/transactions/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCategories_CRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.login("c@example.com")
	other := s.login("other@example.com")

	rr := s.do(http.MethodGet, "/categories", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = s.do(http.MethodPost, "/categories", token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPost, "/categories", token, map[string]any{"name": "Food", "description": "groceries"})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeBody(t, rr)["id"].(string)

	rr = s.do(http.MethodPatch, "/categories/"+id, token, map[string]any{"name": "Groceries"})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeBody(t, rr)
	assert.Equal(t, "Groceries", updated["name"])
	assert.Equal(t, "groceries", updated["description"])

	rr = s.do(http.MethodGet, "/categories/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodDelete, "/categories/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(http.MethodGet, "/categories/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, float64(404), decodeBody(t, rr)["statusCode"])
}
