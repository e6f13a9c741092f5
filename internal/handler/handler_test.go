package handler

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/service"
	"github.com/todoapp/todoapp-go/internal/testutil"
)

type testServer struct {
	handler http.Handler
	users   *testutil.UserStore
	todos   *testutil.TodoStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, RouterConfig{})
}

func newTestServerWithConfig(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	hasher, err := crypto.NewHasher(crypto.AlgorithmBcrypt, crypto.DefaultHashParams(), bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := crypto.NewTokenIssuer("test-secret", 0)
	require.NoError(t, err)

	users := testutil.NewUserStore()
	todos := testutil.NewTodoStore()
	handler := NewRouter(
		zerolog.Nop(),
		service.NewAuthService(users, hasher, issuer),
		service.NewTodoService(todos),
		cfg,
	)
	return &testServer{handler: handler, users: users, todos: todos}
}

func (s *testServer) api() *apitest.APITest {
	return apitest.New().Handler(s.handler)
}

// register creates a user and returns its auth token.
func (s *testServer) register(t *testing.T, email, password string) string {
	t.Helper()
	res := s.api().
		Post("/users").
		JSON(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)).
		Expect(t).
		Status(http.StatusOK).
		HeaderPresent("x-auth").
		End()
	token := res.Response.Header.Get("x-auth")
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) createTodo(t *testing.T, token, text string) model.Todo {
	t.Helper()
	var todo model.Todo
	s.api().
		Post("/todos").
		Header("x-auth", token).
		JSON(fmt.Sprintf(`{"text":%q}`, text)).
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&todo)
	require.False(t, todo.ID.IsZero())
	return todo
}

func emptyBody(res *http.Response, _ *http.Request) error {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if len(body) != 0 {
		return fmt.Errorf("expected empty body, got %q", body)
	}
	return nil
}

func TestHealth(t *testing.T) {
	newTestServer(t).api().
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()
}

func TestCORSExposesAuthHeader(t *testing.T) {
	newTestServer(t).api().
		Get("/health").
		Header("Origin", "http://localhost:3000").
		Expect(t).
		Status(http.StatusOK).
		Header("Access-Control-Expose-Headers", "X-Auth").
		End()
}

func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	s := newTestServerWithConfig(t, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	throttled := 0
	for i := 0; i < 5; i++ {
		res := s.api().
			Intercept(func(r *http.Request) { r.RemoteAddr = "10.0.0.1:1234" }).
			Post("/users/login").
			Header("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i)).
			Header("X-Real-IP", fmt.Sprintf("1.2.3.%d", i)).
			JSON(`{"email":"a@b.com","password":"password"}`).
			Expect(t).
			End()
		if res.Response.StatusCode == http.StatusTooManyRequests {
			throttled++
		}
	}

	if throttled != 4 {
		t.Errorf("throttled %d of 5 requests from one address, want 4", throttled)
	}
}
