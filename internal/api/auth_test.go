package api

import (
	"context"
	"testing"
	"time"

	"github.com/dmelnick/relaychat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestUserId(t *testing.T) {
	tcases := []struct {
		name     string
		ctx      context.Context
		userId   int
		expected bool
	}{
		{
			name:     "no user ID",
			ctx:      context.Background(),
			expected: false,
		},
		{
			name:     "user ID set",
			ctx:      WithUserId(context.Background(), 42),
			userId:   42,
			expected: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			userId, ok := UserId(tc.ctx)
			assert.Equal(t, tc.expected, ok, "expected UserId to return %v", tc.expected)
			assert.Equal(t, tc.userId, userId, "expected UserId to return %d", tc.userId)
		})
	}
}

func TestJwtRoundTrip(t *testing.T) {
	app := &ChatApp{signingKey: []byte("test_secret")}
	user := types.User{Id: 42, IsAdmin: true}

	token, err := app.createJwtForSession(user, defaultJwtExpiration)
	assert.NoError(t, err, "expected no error creating token")
	assert.NotEmpty(t, token, "expected a signed token")

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err, "expected no error extracting user id")
	assert.Equal(t, 42, userId, "expected user id to round-trip")
}

func TestJwtRejectsWrongKey(t *testing.T) {
	app := &ChatApp{signingKey: []byte("test_secret")}
	other := &ChatApp{signingKey: []byte("other_secret")}

	token, err := app.createJwtForSession(types.User{Id: 42}, defaultJwtExpiration)
	assert.NoError(t, err, "expected no error creating token")

	_, err = other.extractUserIdFromToken(token)
	assert.Error(t, err, "expected token signed with another key to be rejected")
}

func TestJwtRejectsExpired(t *testing.T) {
	app := &ChatApp{signingKey: []byte("test_secret")}

	token, err := app.createJwtForSession(types.User{Id: 42}, -time.Minute)
	assert.NoError(t, err, "expected no error creating token")

	_, err = app.extractUserIdFromToken(token)
	assert.Error(t, err, "expected expired token to be rejected")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("hunter2")
	assert.NoError(t, err, "expected no error hashing password")
	assert.NotEqual(t, "hunter2", hash, "expected hash to differ from the password")

	assert.True(t, verifyPassword(hash, "hunter2"), "expected correct password to verify")
	assert.False(t, verifyPassword(hash, "hunter3"), "expected wrong password to fail")
}

func TestCreateJwtCookie(t *testing.T) {
	cookie := createJwtCookie("sometoken", time.Hour)
	assert.Equal(t, tokenCookieKey, cookie.Name, "expected cookie name to match")
	assert.Equal(t, "sometoken", cookie.Value, "expected cookie value to match")
	assert.True(t, cookie.HttpOnly, "expected cookie to be http-only")
}
