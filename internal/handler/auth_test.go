package handler

import (
	"errors"
	"net/http"
	"testing"

	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserSessionScenario(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@b.com", "password")

	s.api().
		Get("/users/me").
		Header("x-auth", token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.email", "a@b.com")).
		Assert(jsonpath.Present("$._id")).
		Assert(jsonpath.NotPresent("$.password")).
		Assert(jsonpath.NotPresent("$.tokens")).
		End()

	s.api().
		Delete("/users/me/token").
		Header("x-auth", token).
		Expect(t).
		Status(http.StatusOK).
		Assert(emptyBody).
		End()

	s.api().
		Get("/users/me").
		Header("x-auth", token).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(emptyBody).
		End()
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	var user struct {
		ID    primitive.ObjectID `json:"_id"`
		Email string             `json:"email"`
	}
	s.api().
		Post("/users").
		JSON(`{"email":"example@example.com","password":"123mnb!"}`).
		Expect(t).
		Status(http.StatusOK).
		HeaderPresent("x-auth").
		Assert(jsonpath.Equal("$.email", "example@example.com")).
		End().
		JSON(&user)

	require.False(t, user.ID.IsZero())
	tokens := s.users.Tokens(user.ID)
	require.Len(t, tokens, 1)
	assert.Equal(t, "auth", tokens[0].Access)
}

func TestRegister_Invalid(t *testing.T) {
	s := newTestServer(t)

	for name, body := range map[string]string{
		"malformed email": `{"email":"and","password":"123"}`,
		"short password":  `{"email":"a@b.com","password":"12345"}`,
		"missing fields":  `{}`,
		"not json":        `email=a@b.com`,
	} {
		t.Run(name, func(t *testing.T) {
			s.api().
				Post("/users").
				JSON(body).
				Expect(t).
				Status(http.StatusBadRequest).
				HeaderNotPresent("x-auth").
				Assert(jsonpath.Present("$.error")).
				End()
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "andrew@example.com", "userOnePass")

	s.api().
		Post("/users").
		JSON(`{"email":"andrew@example.com","password":"Password123!"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "email already taken")).
		End()
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	first := s.register(t, "jen@example.com", "userTwoPass")

	res := s.api().
		Post("/users/login").
		JSON(`{"email":"jen@example.com","password":"userTwoPass"}`).
		Expect(t).
		Status(http.StatusOK).
		HeaderPresent("x-auth").
		Assert(jsonpath.Equal("$.email", "jen@example.com")).
		End()
	second := res.Response.Header.Get("x-auth")
	require.NotEqual(t, first, second)

	// Both sessions stay usable.
	for _, token := range []string{first, second} {
		s.api().
			Get("/users/me").
			Header("x-auth", token).
			Expect(t).
			Status(http.StatusOK).
			End()
	}
}

func TestLogin_Invalid(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jen@example.com", "userTwoPass")

	for name, body := range map[string]string{
		"wrong password": `{"email":"jen@example.com","password":"userTwoPass1"}`,
		"unknown email":  `{"email":"nobody@example.com","password":"userTwoPass"}`,
	} {
		t.Run(name, func(t *testing.T) {
			s.api().
				Post("/users/login").
				JSON(body).
				Expect(t).
				Status(http.StatusBadRequest).
				HeaderNotPresent("x-auth").
				Assert(jsonpath.Equal("$.error", "invalid email or password")).
				End()
		})
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			req := s.api().Get("/users/me")
			if token != "" {
				req = req.Header("x-auth", token)
			}
			req.Expect(t).
				Status(http.StatusUnauthorized).
				Assert(emptyBody).
				End()
		})
	}
}

func TestLogout_StoreError(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@b.com", "password")

	// Authentication still needs the store, so fail only the revocation.
	s.users.PullErr = errors.New("write concern timeout")

	s.api().
		Delete("/users/me/token").
		Header("x-auth", token).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "write concern timeout")).
		End()
}
