package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionUser(t *testing.T) {

	db, users, _ := newTestCoreDB(t)
	alice := users.add(&testUser{name: "Alice"})

	t.Run("no session", func(t *testing.T) {
		req := newTestRequest(t, db)
		_, err := req.SessionUser()
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.False(t, req.LoggedIn())
	})

	t.Run("valid session", func(t *testing.T) {
		req := newTestRequest(t, db)
		_, err := req.LoginExternal("0000-0001-0000-0001")
		require.NoError(t, err)

		again := newTestRequestSameSession(t, db, req)
		assert.True(t, again.LoggedIn())
		u, err := again.SessionUser()
		require.NoError(t, err)
		assert.Equal(t, req.User.ID(), u.ID())
	})

	t.Run("store error is not a logout", func(t *testing.T) {
		req := newTestRequest(t, db)
		db.SessionManager.Put(req.request.Context(), SessionUserKey, alice.id)
		users.failGet = errors.New("disk I/O error")
		defer func() {
			users.failGet = nil
		}()

		_, err := req.SessionUser()
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotLoggedIn)

		// the session entry survives, unlike with a stale id
		assert.Equal(t, alice.id, db.SessionManager.GetInt(req.request.Context(), SessionUserKey))

		again := newTestRequestSameSession(t, db, req)
		assert.False(t, again.LoggedIn(), "request proceeds anonymously")
	})

	t.Run("stale session is cleared", func(t *testing.T) {
		req := newTestRequest(t, db)
		db.SessionManager.Put(req.request.Context(), SessionUserKey, alice.id+1000)

		_, err := req.SessionUser()
		assert.ErrorIs(t, err, ErrNotLoggedIn, "stale id must surface as not-logged-in, not as not-found")

		// the required side effect: the stale id is gone from the session
		assert.Zero(t, db.SessionManager.GetInt(req.request.Context(), SessionUserKey))
	})
}

func TestLoginExternal(t *testing.T) {

	db, _, _ := newTestCoreDB(t)

	t.Run("first login creates, second login finds", func(t *testing.T) {
		req := newTestRequest(t, db)
		u1, err := req.LoginExternal("0000-0002-1825-0097")
		require.NoError(t, err)
		req.Logout()

		u2, err := req.LoginExternal("0000-0002-1825-0097")
		require.NoError(t, err)
		assert.Equal(t, u1.ID(), u2.ID())

		n, _ := db.CountUsers()
		assert.Equal(t, 1, n)
	})

	t.Run("refuses over an active session", func(t *testing.T) {
		req := newTestRequest(t, db)
		_, err := req.LoginExternal("0000-0002-0000-0001")
		require.NoError(t, err)

		_, err = req.LoginExternal("0000-0002-0000-0002")
		assert.ErrorIs(t, err, ErrAlreadyAuthenticated)

		// also on a fresh request with the same session
		again := newTestRequestSameSession(t, db, req)
		_, err = again.LoginExternal("0000-0002-0000-0002")
		assert.ErrorIs(t, err, ErrAlreadyAuthenticated)
	})
}

func TestLogoutIdempotent(t *testing.T) {

	db, _, _ := newTestCoreDB(t)

	req := newTestRequest(t, db)
	req.Logout() // not logged in, must not fail
	req.Logout()

	_, err := req.LoginExternal("0000-0003-0000-0001")
	require.NoError(t, err)
	req.Logout()
	assert.False(t, req.LoggedIn())
	req.Logout()
	assert.False(t, req.LoggedIn())
}

func TestMustBeAdministrator(t *testing.T) {

	db, users, _ := newTestCoreDB(t)
	admin := users.add(&testUser{name: "root", admin: true})
	mortal := users.add(&testUser{name: "Bob"})

	t.Run("no session", func(t *testing.T) {
		req := newTestRequest(t, db)
		assert.ErrorIs(t, req.MustBeAdministrator(), ErrNotLoggedIn)
	})

	t.Run("not an admin", func(t *testing.T) {
		req := newTestRequest(t, db)
		db.SessionManager.Put(req.request.Context(), SessionUserKey, mortal.id)
		assert.ErrorIs(t, req.MustBeAdministrator(), ErrUnauthorized)
	})

	t.Run("admin", func(t *testing.T) {
		req := newTestRequest(t, db)
		db.SessionManager.Put(req.request.Context(), SessionUserKey, admin.id)
		assert.NoError(t, req.MustBeAdministrator())
	})
}

func TestMustBeModerator(t *testing.T) {

	db, users, _ := newTestCoreDB(t)
	mod := users.add(&testUser{name: "Mia", moderator: true})
	mortal := users.add(&testUser{name: "Bob"})

	req := newTestRequest(t, db)
	db.SessionManager.Put(req.request.Context(), SessionUserKey, mod.id)
	assert.NoError(t, req.MustBeModerator())

	req = newTestRequest(t, db)
	db.SessionManager.Put(req.request.Context(), SessionUserKey, mortal.id)
	assert.ErrorIs(t, req.MustBeModerator(), ErrUnauthorized)
}

func TestLanguage(t *testing.T) {

	db, _, _ := newTestCoreDB(t)

	req := newTestRequest(t, db)
	assert.Equal(t, "en", req.Language(), "default language")

	require.NoError(t, req.SetLanguage("de"))
	assert.Equal(t, "de", req.Language())

	assert.Error(t, req.SetLanguage("tlh"))
	assert.Equal(t, "de", req.Language(), "unknown language must not change the session")
}
