package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"account-ledger/internal/config"
	"account-ledger/internal/repository/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	store  *memory.Store
	router *mux.Router
}

func (suite *RouterTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	suite.router = NewRouter(Dependencies{Store: suite.store, Logger: discardLogger()})
}

func (suite *RouterTestSuite) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (suite *RouterTestSuite) createAccount(path, owner, balance string) int64 {
	rec, env := suite.do(http.MethodPost, path, map[string]any{"owner": owner, "balance": balance})
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())

	var account struct {
		ID int64 `json:"id"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &account))
	return account.ID
}

func (suite *RouterTestSuite) balance(path string) decimal.Decimal {
	rec, env := suite.do(http.MethodGet, path, nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	balance, err := decimal.NewFromString(string(env.Data))
	require.NoError(suite.T(), err)
	return balance
}

func (suite *RouterTestSuite) assertError(rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	assert.Equal(suite.T(), status, rec.Code, rec.Body.String())
	if assert.NotNil(suite.T(), env.Error, rec.Body.String()) {
		assert.Equal(suite.T(), code, env.Error.Code)
	}
}

func (suite *RouterTestSuite) TestTransferFlow() {
	a := suite.createAccount("/conta", "Alice", "100.00")
	b := suite.createAccount("/conta", "Bob", "50.00")

	rec, _ := suite.do(http.MethodPost, "/conta/transferencia", map[string]any{
		"source_account_id":      a,
		"destination_account_id": b,
		"amount":                 "30.00",
	})
	assert.Equal(suite.T(), http.StatusNoContent, rec.Code)
	assert.Empty(suite.T(), rec.Body.String())

	assert.True(suite.T(), decimal.RequireFromString("70").Equal(suite.balance("/conta/1/saldo")))
	assert.True(suite.T(), decimal.RequireFromString("80").Equal(suite.balance("/conta/2/saldo")))

	rec, env := suite.do(http.MethodGet, "/conta/1/extrato", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var statement struct {
		ID           int64 `json:"id"`
		Transactions []struct {
			Description string          `json:"description"`
			Amount      decimal.Decimal `json:"amount"`
		} `json:"transactions"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &statement))
	assert.Equal(suite.T(), a, statement.ID)
	require.Len(suite.T(), statement.Transactions, 1)
	assert.Equal(suite.T(), "Transfer sent to account 2", statement.Transactions[0].Description)
	assert.True(suite.T(), decimal.RequireFromString("-30").Equal(statement.Transactions[0].Amount))
}

func (suite *RouterTestSuite) TestEnglishAliases() {
	suite.createAccount("/account", "Alice", "10.00")
	suite.createAccount("/account", "Bob", "0")

	rec, _ := suite.do(http.MethodPost, "/account/transfer", map[string]any{
		"source_account_id":      1,
		"destination_account_id": 2,
		"amount":                 "10",
	})
	assert.Equal(suite.T(), http.StatusNoContent, rec.Code)

	assert.True(suite.T(), decimal.Zero.Equal(suite.balance("/account/1/balance")))
	assert.True(suite.T(), decimal.RequireFromString("10").Equal(suite.balance("/account/2/saldo")))

	rec, _ = suite.do(http.MethodGet, "/account/2/statement", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *RouterTestSuite) TestMissingAccountReads() {
	rec, _ := suite.do(http.MethodGet, "/conta/999/saldo", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.JSONEq(suite.T(), `{"data":0.00}`, rec.Body.String())

	rec, _ = suite.do(http.MethodGet, "/conta/999/extrato", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.JSONEq(suite.T(), `{}`, rec.Body.String())
}

func (suite *RouterTestSuite) TestCreateAccountIgnoresClientID() {
	rec, env := suite.do(http.MethodPost, "/conta", map[string]any{"id": 42, "owner": "Alice", "balance": "1.50"})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)

	var account struct {
		ID      int64           `json:"id"`
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &account))
	assert.Equal(suite.T(), int64(1), account.ID)
	assert.True(suite.T(), decimal.RequireFromString("1.5").Equal(account.Balance))
}

func (suite *RouterTestSuite) TestCreateAccountValidation() {
	rec, env := suite.do(http.MethodPost, "/conta", map[string]any{"balance": "1"})
	suite.assertError(rec, env, http.StatusBadRequest, "invalid_input")
	assert.Contains(suite.T(), env.Error.Details, "Owner")

	rec, env = suite.do(http.MethodPost, "/conta", map[string]any{"owner": "Alice", "balance": "-1"})
	suite.assertError(rec, env, http.StatusBadRequest, "invalid_amount")

	rec, env = suite.do(http.MethodPost, "/conta", `{"owner":`)
	suite.assertError(rec, env, http.StatusBadRequest, "invalid_input")
}

func (suite *RouterTestSuite) TestTransferErrors() {
	suite.createAccount("/conta", "Alice", "10.00")
	suite.createAccount("/conta", "Bob", "0.00")

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"insufficient funds", map[string]any{"source_account_id": 1, "destination_account_id": 2, "amount": "10.01"}, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"missing source", map[string]any{"source_account_id": 9, "destination_account_id": 2, "amount": "1"}, http.StatusNotFound, "account_not_found"},
		{"missing destination", map[string]any{"source_account_id": 1, "destination_account_id": 9, "amount": "1"}, http.StatusNotFound, "account_not_found"},
		{"zero amount", map[string]any{"source_account_id": 1, "destination_account_id": 2, "amount": "0"}, http.StatusBadRequest, "invalid_amount"},
		{"three decimals", map[string]any{"source_account_id": 1, "destination_account_id": 2, "amount": "0.001"}, http.StatusBadRequest, "invalid_amount"},
		{"same account", map[string]any{"source_account_id": 1, "destination_account_id": 1, "amount": "1"}, http.StatusBadRequest, "same_account_transfer"},
		{"missing amount", map[string]any{"source_account_id": 1, "destination_account_id": 2}, http.StatusBadRequest, "invalid_input"},
		{"unparsable amount", `{"source_account_id":1,"destination_account_id":2,"amount":"ten"}`, http.StatusBadRequest, "invalid_input"},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			rec, env := suite.do(http.MethodPost, "/conta/transferencia", tc.body)
			suite.assertError(rec, env, tc.status, tc.code)
		})
	}

	assert.True(suite.T(), decimal.RequireFromString("10").Equal(suite.balance("/conta/1/saldo")))
	assert.True(suite.T(), decimal.Zero.Equal(suite.balance("/conta/2/saldo")))
}

func (suite *RouterTestSuite) TestNonNumericIDIsNotRouted() {
	rec, _ := suite.do(http.MethodGet, "/conta/abc/saldo", nil)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)

	rec, _ = suite.do(http.MethodGet, "/usuarios/abc", nil)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
}

func (suite *RouterTestSuite) TestUserLifecycle() {
	rec, env := suite.do(http.MethodGet, "/usuarios", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.JSONEq(suite.T(), `[]`, string(env.Data))

	rec, env = suite.do(http.MethodPost, "/usuarios", map[string]any{"name": "Ana", "email": "ana@example.com"})
	require.Equal(suite.T(), http.StatusOK, rec.Code, rec.Body.String())
	var user struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &user))
	assert.Equal(suite.T(), int64(1), user.ID)

	rec, env = suite.do(http.MethodPost, "/users", map[string]any{"id": user.ID, "name": "Ana Maria", "email": "ana@example.com"})
	require.Equal(suite.T(), http.StatusOK, rec.Code, rec.Body.String())

	rec, env = suite.do(http.MethodGet, "/usuarios/1", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	require.NoError(suite.T(), json.Unmarshal(env.Data, &user))
	assert.Equal(suite.T(), "Ana Maria", user.Name)

	rec, env = suite.do(http.MethodPost, "/usuarios", map[string]any{"name": "Other", "email": "ana@example.com"})
	suite.assertError(rec, env, http.StatusConflict, "duplicate_user")

	rec, env = suite.do(http.MethodPost, "/usuarios", map[string]any{"id": 77, "name": "Ghost", "email": "ghost@example.com"})
	suite.assertError(rec, env, http.StatusNotFound, "user_not_found")

	rec, env = suite.do(http.MethodPost, "/usuarios", map[string]any{"name": "Bad", "email": "not-an-email"})
	suite.assertError(rec, env, http.StatusBadRequest, "invalid_input")
	assert.Contains(suite.T(), env.Error.Details, "Email")

	rec, _ = suite.do(http.MethodDelete, "/usuarios/1", nil)
	assert.Equal(suite.T(), http.StatusNoContent, rec.Code)

	rec, env = suite.do(http.MethodDelete, "/users/1", nil)
	suite.assertError(rec, env, http.StatusNotFound, "user_not_found")

	rec, env = suite.do(http.MethodGet, "/usuarios/1", nil)
	suite.assertError(rec, env, http.StatusNotFound, "user_not_found")
}

func (suite *RouterTestSuite) TestRequestIDHeader() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	assert.Equal(suite.T(), "req-123", rec.Header().Get(requestIDHeader))

	rec, _ = suite.do(http.MethodGet, "/health", nil)
	assert.NotEmpty(suite.T(), rec.Header().Get(requestIDHeader))
}

func (suite *RouterTestSuite) TestHealth() {
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(suite.T(), "healthy", health["status"])
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestHealthReportsFailingDependency(t *testing.T) {
	router := NewRouter(Dependencies{
		Store:  memory.NewStore(),
		Logger: discardLogger(),
		Checks: map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"store":"ok","redis":"unavailable"}}`, rec.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware(discardLogger()))
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"internal_error","message":"an unexpected error occurred"}}`, rec.Body.String())
}

func TestStartServerWithMemoryStore(t *testing.T) {
	cfg := &config.Config{ServerPort: "0", StorageDriver: config.StorageMemory}

	srv, port, err := StartServer(cfg, nil)
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	assert.NotEmpty(t, port)
	resp, err := http.Get(srv.GetBaseURL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
