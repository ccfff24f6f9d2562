package sqldb

import (
	"sync"
	"testing"

	"github.com/mkranz/taxograph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUser(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	u, err := userDB.GetOrInsertByExternalID("0000-0002-1825-0097")
	require.NoError(t, err)

	got, err := userDB.GetUser(u.ID())
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())
	assert.Equal(t, "0000-0002-1825-0097", got.Name())
	assert.False(t, got.IsAdministrator())
	assert.False(t, got.IsModerator())

	_, err = userDB.GetUser(u.ID() + 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetOrInsertByExternalID(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	t.Run("idempotent", func(t *testing.T) {
		u1, err := userDB.GetOrInsertByExternalID("0000-0001-0000-0001")
		require.NoError(t, err)
		u2, err := userDB.GetOrInsertByExternalID("0000-0001-0000-0001")
		require.NoError(t, err)
		assert.Equal(t, u1.ID(), u2.ID())

		n, err := userDB.CountUsers()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("identifier is trimmed", func(t *testing.T) {
		u1, err := userDB.GetOrInsertByExternalID(" 0000-0001-0000-0002 ")
		require.NoError(t, err)
		u2, err := userDB.GetOrInsertByExternalID("0000-0001-0000-0002")
		require.NoError(t, err)
		assert.Equal(t, u1.ID(), u2.ID())
	})
}

func TestGetOrInsertByExternalIDConcurrent(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]int, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := userDB.GetOrInsertByExternalID("0000-0003-0000-0001")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = u.ID()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	n, err := userDB.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the race must create exactly one user row")
}

func TestInsertWithMappingConflict(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	_, err := userDB.insertWithMapping("0000-0004-0000-0001")
	require.NoError(t, err)

	// a second insert for the same identifier must fail on the mapping
	// constraint, not create a second user row
	_, err = userDB.insertWithMapping("0000-0004-0000-0001")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	n, err := userDB.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteUser(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	admin, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0001")
	require.NoError(t, err)
	require.NoError(t, userDB.SetAdministrator(admin, true))

	t.Run("stranger may not", func(t *testing.T) {
		victim, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0002")
		require.NoError(t, err)
		stranger, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0003")
		require.NoError(t, err)

		assert.ErrorIs(t, userDB.DeleteUser(stranger.ID(), victim.ID()), core.ErrUnauthorized)
	})

	t.Run("self delete clears the mapping", func(t *testing.T) {
		u, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0004")
		require.NoError(t, err)

		require.NoError(t, userDB.DeleteUser(u.ID(), u.ID()))

		_, err = userDB.GetUser(u.ID())
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = userDB.GetUserByExternalID("0000-0005-0000-0004")
		assert.ErrorIs(t, err, core.ErrNotFound)

		// logging in again creates a fresh account
		again, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0004")
		require.NoError(t, err)
		assert.NotEqual(t, u.ID(), again.ID())
	})

	t.Run("admin may", func(t *testing.T) {
		victim, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0005")
		require.NoError(t, err)
		require.NoError(t, userDB.DeleteUser(admin.ID(), victim.ID()))
	})

	t.Run("unknown target", func(t *testing.T) {
		assert.ErrorIs(t, userDB.DeleteUser(admin.ID(), 99999), core.ErrNotFound)
	})

	t.Run("vanished actor", func(t *testing.T) {
		victim, err := userDB.GetOrInsertByExternalID("0000-0005-0000-0006")
		require.NoError(t, err)
		assert.ErrorIs(t, userDB.DeleteUser(99999, victim.ID()), core.ErrUnauthorized)
	})
}

// Ids of deleted users must not be handed out again. Taxa and samples keep
// their author id after the author is gone, so a reused id would make an
// unrelated new user the owner of the orphaned records.
func TestUserIDsNotRecycled(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	keeper, err := userDB.GetOrInsertByExternalID("0000-0008-0000-0001")
	require.NoError(t, err)
	victim, err := userDB.GetOrInsertByExternalID("0000-0008-0000-0002")
	require.NoError(t, err)
	require.Greater(t, victim.ID(), keeper.ID())

	// delete the row with the highest id, the easiest one to recycle
	require.NoError(t, userDB.DeleteUser(victim.ID(), victim.ID()))

	next, err := userDB.GetOrInsertByExternalID("0000-0008-0000-0003")
	require.NoError(t, err)
	assert.NotEqual(t, victim.ID(), next.ID())
	assert.Greater(t, next.ID(), victim.ID())
}

func TestSetRoles(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	u, err := userDB.GetOrInsertByExternalID("0000-0006-0000-0001")
	require.NoError(t, err)

	require.NoError(t, userDB.SetAdministrator(u, true))
	require.NoError(t, userDB.SetModerator(u, true))
	assert.True(t, u.IsAdministrator(), "cached struct is updated")
	assert.True(t, u.IsModerator())

	got, err := userDB.GetUser(u.ID())
	require.NoError(t, err)
	assert.True(t, got.IsAdministrator())
	assert.True(t, got.IsModerator())

	require.NoError(t, userDB.SetAdministrator(u, false))
	got, err = userDB.GetUser(u.ID())
	require.NoError(t, err)
	assert.False(t, got.IsAdministrator())
	assert.True(t, got.IsModerator())
}

func TestGetAllUsers(t *testing.T) {

	userDB := NewUserDB(openTestDB(t))

	for _, extid := range []string{"0000-0007-0000-0001", "0000-0007-0000-0002", "0000-0007-0000-0003"} {
		_, err := userDB.GetOrInsertByExternalID(extid)
		require.NoError(t, err)
	}

	all, err := userDB.GetAllUsers(10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := userDB.GetAllUsers(2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
