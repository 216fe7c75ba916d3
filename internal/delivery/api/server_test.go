package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"userhub/config"
	apimiddleware "userhub/internal/delivery/api/middleware"
	"userhub/internal/delivery/api/router"
	"userhub/internal/delivery/api/router/handler"
	deliverycontext "userhub/internal/delivery/context"
	"userhub/internal/domain/validation"
	"userhub/internal/infra/auth"
	"userhub/internal/infra/persistence/memory"
	"userhub/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type apiBody struct {
	Status  string          `json:"status"`
	Token   string          `json:"token"`
	Results *int            `json:"results"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "4KB"
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.Auth.TokenTTL = time.Hour

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validation.New()
	repo := memory.NewUserRepository()
	hasher := auth.NewBcryptHasherWithCost(bcrypt.MinCost)
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	authUC := impl.NewAuthService(impl.AuthServiceParams{
		UserRepo:     repo,
		Hasher:       hasher,
		TokenService: tokens,
		Validator:    v,
		Logger:       logger,
	})
	userUC := impl.NewUserService(impl.UserServiceParams{
		UserRepo:  repo,
		Hasher:    hasher,
		Validator: v,
		Logger:    logger,
	})

	r := router.NewRouter(router.RouterParams{
		AuthHandler:    handler.NewAuthHandler(authUC),
		UserHandler:    handler.NewUserHandler(userUC),
		AuthMiddleware: apimiddleware.NewAuthMiddleware(tokens),
	})

	return newEcho(cfg, logger, v, r)
}

func do(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) (*httptest.ResponseRecorder, apiBody) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var parsed apiBody
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), rec.Body.String())
	}

	return rec, parsed
}

func decodeUser(t *testing.T, raw json.RawMessage) userView {
	t.Helper()

	var u userView
	require.NoError(t, json.Unmarshal(raw, &u))

	return u
}

func registerJane(t *testing.T, e *echo.Echo) userView {
	t.Helper()

	rec, body := do(t, e, http.MethodPost, "/auth/register",
		`{"name":"Jane Doe","email":"jane@example.com","password":"secret1","age":25}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decodeUser(t, body.Data)
}

func TestAuthFlow_RegisterLoginMe(t *testing.T) {
	e := newTestServer(t)

	jane := registerJane(t, e)
	assert.NotEmpty(t, jane.ID)
	assert.Equal(t, "Jane Doe", jane.Name)
	assert.Equal(t, "jane@example.com", jane.Email)
	require.NotNil(t, jane.Age)
	assert.Equal(t, 25, *jane.Age)
	assert.False(t, jane.CreatedAt.IsZero())

	rec, body := do(t, e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", body.Status)
	require.NotEmpty(t, body.Token)
	assert.Equal(t, jane.ID, decodeUser(t, body.Data).ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec, body = do(t, e, http.MethodGet, "/auth/me", "", echo.HeaderAuthorization, "Bearer "+body.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, jane.ID, decodeUser(t, body.Data).ID)
}

func TestAuthFlow_RegisterNeverReturnsPassword(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, http.MethodPost, "/auth/register",
		`{"name":"Jane Doe","email":"jane@example.com","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret1")
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), `"age"`)
}

func TestAuthFlow_DuplicateEmail(t *testing.T) {
	e := newTestServer(t)
	registerJane(t, e)

	for _, email := range []string{"jane@example.com", "  JANE@Example.com "} {
		rec, body := do(t, e, http.MethodPost, "/auth/register",
			`{"name":"Jane Again","email":"`+email+`","password":"secret2"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "fail", body.Status)
		assert.Equal(t, "DUPLICATE_EMAIL", body.Code)
	}
}

func TestAuthFlow_RegisterValidation(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, http.MethodPost, "/auth/register",
		`{"name":"J","email":"jane@","password":"123","age":17}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "VALIDATION_FAILED", body.Code)
	assert.ElementsMatch(t, []string{
		"Name must be at least 2 characters",
		"Invalid email format",
		"Password must be at least 6 characters",
		"Minimum age is 18",
	}, body.Errors)

	rec, body = do(t, e, http.MethodPost, "/auth/register", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.ElementsMatch(t, []string{"Name is required", "Email is required", "Password is required"}, body.Errors)
}

func TestAuthFlow_AgeBoundary(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, http.MethodPost, "/auth/register",
		`{"name":"Teen","email":"teen@example.com","password":"secret1","age":17}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/auth/register",
		`{"name":"Adult","email":"adult@example.com","password":"secret1","age":18}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuthFlow_LoginFailuresLookAlike(t *testing.T) {
	e := newTestServer(t)
	registerJane(t, e)

	wrongRec, wrongBody := do(t, e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"wrong-password"}`)
	unknownRec, unknownBody := do(t, e, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)
	assert.Equal(t, wrongRec.Code, unknownRec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", wrongBody.Code)
	assert.Equal(t, wrongBody, unknownBody)
	assert.Empty(t, wrongBody.Token)
}

func TestAuthFlow_LoginMalformed(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, http.MethodPost, "/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", body.Code)

	rec, body = do(t, e, http.MethodPost, "/auth/login", `{"email":"jane@example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Code)
	assert.Empty(t, body.Errors)
}

func TestAuthFlow_MeRequiresToken(t *testing.T) {
	e := newTestServer(t)

	for _, header := range []string{"", "Bearer not-a-token", "Token abc"} {
		var headers []string
		if header != "" {
			headers = []string{echo.HeaderAuthorization, header}
		}
		rec, body := do(t, e, http.MethodGet, "/auth/me", "", headers...)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "fail", body.Status)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
	}
}

func TestUsers_CRUD(t *testing.T) {
	e := newTestServer(t)
	jane := registerJane(t, e)

	rec, body := do(t, e, http.MethodPost, "/users", `{"name":"John Roe","email":"john@example.com","password":"secret2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	john := decodeUser(t, body.Data)
	assert.NotContains(t, rec.Body.String(), "secret2")

	rec, body = do(t, e, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body.Results)
	assert.Equal(t, 2, *body.Results)
	var listed []userView
	require.NoError(t, json.Unmarshal(body.Data, &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, jane.ID, listed[0].ID)
	assert.Equal(t, john.ID, listed[1].ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec, body = do(t, e, http.MethodGet, "/users/"+john.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "john@example.com", decodeUser(t, body.Data).Email)

	rec, body = do(t, e, http.MethodPatch, "/users/"+jane.ID, `{"name":"Janet Doe"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeUser(t, body.Data)
	assert.Equal(t, "Janet Doe", updated.Name)
	assert.Equal(t, 25, *updated.Age)
	assert.Equal(t, jane.CreatedAt, updated.CreatedAt)

	rec, body = do(t, e, http.MethodPatch, "/users/"+jane.ID, `{"age":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeUser(t, body.Data).Age)

	rec, body = do(t, e, http.MethodPatch, "/users/"+jane.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body.Code)

	rec, body = do(t, e, http.MethodPatch, "/users/"+jane.ID, `{"email":"john@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_EMAIL", body.Code)

	rec, body = do(t, e, http.MethodPatch, "/users/"+jane.ID, `{"age":16}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"Minimum age is 18"}, body.Errors)

	rec, _ = do(t, e, http.MethodDelete, "/users/"+john.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec, body = do(t, e, http.MethodDelete, "/users/"+john.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", body.Code)

	rec, _ = do(t, e, http.MethodGet, "/users/"+john.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_PasswordUpdateChangesLogin(t *testing.T) {
	e := newTestServer(t)
	jane := registerJane(t, e)

	rec, _ := do(t, e, http.MethodPatch, "/users/"+jane.ID, `{"password":"brand-new"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "brand-new")

	rec, _ = do(t, e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"brand-new"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsers_UnknownAndMalformedIDs(t *testing.T) {
	e := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec, body := do(t, e, method, "/users/does-not-exist", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "fail", body.Status)
	}

	rec, _ := do(t, e, http.MethodPatch, "/users/does-not-exist", `{"name":"Nobody"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_ListEmpty(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, http.MethodGet, "/users", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body.Results)
	assert.Equal(t, 0, *body.Results)
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestServer_HealthAndRequestID(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body.Data))
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))

	rec, _ = do(t, e, http.MethodGet, "/health", "", deliverycontext.HeaderXRequestID, "trace-123")
	assert.Equal(t, "trace-123", rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestServer_UnknownRoute(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestServer_BodyLimit(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, http.MethodPost, "/users",
		`{"name":"`+strings.Repeat("a", 8<<10)+`","email":"big@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", body.Code)
}
