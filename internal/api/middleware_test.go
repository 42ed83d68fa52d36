package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		app := newTestApp(t, &database.MockRepository{})
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler not to be called")
		})

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 without a token cookie")
	})

	t.Run("garbage token", func(t *testing.T) {
		app := newTestApp(t, &database.MockRepository{})
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler not to be called")
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: "garbage"})
		handler(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 for an invalid token")
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		app := newTestApp(t, &database.MockRepository{})
		token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
		assert.NoError(t, err, "expected no error creating token")

		var gotUserId int
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			gotUserId, _ = UserId(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
		handler(w, r)

		assert.Equal(t, http.StatusOK, w.Code, "expected handler to run")
		assert.Equal(t, 42, gotUserId, "expected user id to be set on the request context")
		assert.Contains(t, w.Header().Get("Cache-Control"), "no-store", "expected authed responses to be uncacheable")
	})
}

func TestAdminMiddleware(t *testing.T) {
	t.Run("non-admin is forbidden", func(t *testing.T) {
		db := &database.MockRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 42).Return(database.User{Id: 42}, nil)

		app := newTestApp(t, db)
		token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
		assert.NoError(t, err)

		handler := app.adminMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler not to be called")
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
		handler(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code, "expected 403 for non-admin")
	})

	t.Run("admin flag is read fresh from the store", func(t *testing.T) {
		db := &database.MockRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 42).Return(database.User{Id: 42, IsAdmin: true}, nil)

		app := newTestApp(t, db)
		token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
		assert.NoError(t, err)

		handler := app.adminMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
		handler(w, r)

		assert.Equal(t, http.StatusOK, w.Code, "expected admin to pass")
	})
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp(t, &database.MockRepository{})

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code, "expected panic to surface as 500")
	assert.Equal(t, "close", w.Header().Get("Connection"), "expected connection close header")
}
