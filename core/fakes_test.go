package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"
)

// in-memory stand-ins for the sqldb implementations

type testUser struct {
	id        int
	name      string
	admin     bool
	moderator bool
}

func (u *testUser) ID() int               { return u.id }
func (u *testUser) Name() string          { return u.name }
func (u *testUser) Description() string   { return "" }
func (u *testUser) IsAdministrator() bool { return u.admin }
func (u *testUser) IsModerator() bool     { return u.moderator }

type testUserDB struct {
	mu      sync.Mutex
	nextID  int
	users   map[int]*testUser
	extids  map[string]int
	failGet error // returned by GetUser when set, simulates a store failure
}

func newTestUserDB() *testUserDB {
	return &testUserDB{
		users:  make(map[int]*testUser),
		extids: make(map[string]int),
	}
}

func (db *testUserDB) add(u *testUser) *testUser {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.id == 0 {
		db.nextID++
		u.id = db.nextID
	} else if u.id > db.nextID {
		db.nextID = u.id
	}
	db.users[u.id] = u
	return u
}

func (db *testUserDB) GetUser(id int) (DBUser, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failGet != nil {
		return nil, db.failGet
	}
	if u, ok := db.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (db *testUserDB) GetUserByExternalID(extid string) (DBUser, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if id, ok := db.extids[extid]; ok {
		return db.users[id], nil
	}
	return nil, ErrNotFound
}

func (db *testUserDB) GetOrInsertByExternalID(extid string) (DBUser, error) {
	if u, err := db.GetUserByExternalID(extid); err == nil {
		return u, nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID++
	u := &testUser{id: db.nextID, name: extid}
	db.users[u.id] = u
	db.extids[extid] = u.id
	return u, nil
}

func (db *testUserDB) GetAllUsers(limit, offset int) ([]DBUser, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var all []DBUser
	for _, u := range db.users {
		all = append(all, u)
	}
	return all, nil
}

func (db *testUserDB) CountUsers() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

func (db *testUserDB) DeleteUser(actorID, id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	actor, ok := db.users[actorID]
	if !ok {
		return ErrUnauthorized
	}
	if _, ok := db.users[id]; !ok {
		return ErrNotFound
	}
	if actorID != id && !actor.admin {
		return ErrUnauthorized
	}
	delete(db.users, id)
	for extid, uid := range db.extids {
		if uid == id {
			delete(db.extids, extid)
		}
	}
	return nil
}

func (db *testUserDB) SetAdministrator(u DBUser, admin bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID()].admin = admin
	return nil
}

func (db *testUserDB) SetModerator(u DBUser, moderator bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID()].moderator = moderator
	return nil
}

func (db *testUserDB) Writeable() bool {
	return true
}

type testTaxon struct {
	id        int
	name      string
	author    int
	tsCreated int64
}

func (t *testTaxon) ID() int             { return t.id }
func (t *testTaxon) Name() string        { return t.name }
func (t *testTaxon) Description() string { return "" }
func (t *testTaxon) AuthorUserID() int   { return t.author }
func (t *testTaxon) TsCreated() int64    { return t.tsCreated }

type testTaxonDB struct {
	mu     sync.Mutex
	nextID int
	taxa   map[int]*testTaxon
	users  *testUserDB // for the in-transaction admin check
}

func (db *testTaxonDB) GetTaxon(id int) (DBTaxon, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.taxa[id]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (db *testTaxonDB) GetAllTaxa(limit, offset int) ([]DBTaxon, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var all []DBTaxon
	for _, t := range db.taxa {
		all = append(all, t)
	}
	return all, nil
}

func (db *testTaxonDB) GetTaxaOf(authorID int, limit, offset int) ([]DBTaxon, error) {
	var of []DBTaxon
	all, _ := db.GetAllTaxa(limit, offset)
	for _, t := range all {
		if t.AuthorUserID() == authorID {
			of = append(of, t)
		}
	}
	return of, nil
}

func (db *testTaxonDB) CountTaxa() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.taxa), nil
}

func (db *testTaxonDB) InsertTaxon(name, description string, authorID int) (DBTaxon, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID++
	t := &testTaxon{id: db.nextID, name: name, author: authorID, tsCreated: time.Now().Unix()}
	db.taxa[t.id] = t
	return t, nil
}

func (db *testTaxonDB) DeleteTaxon(actorID, id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.taxa[id]
	if !ok {
		return ErrNotFound
	}
	if actorID != t.author {
		actor, err := db.users.GetUser(actorID)
		if err != nil || !actor.IsAdministrator() {
			return ErrUnauthorized
		}
	}
	delete(db.taxa, id)
	return nil
}

func (db *testTaxonDB) Writeable() bool {
	return true
}

// newTestCoreDB wires a CoreDB with in-memory stores and the default
// in-memory session store.
func newTestCoreDB(t *testing.T) (*CoreDB, *testUserDB, *testTaxonDB) {
	t.Helper()
	users := newTestUserDB()
	taxa := &testTaxonDB{taxa: make(map[int]*testTaxon), users: users}
	db := &CoreDB{}
	db.SessionManager = scs.New() // in-memory store by default
	db.UserDB = users
	db.TaxonDB = taxa
	return db, users, taxa
}

// newTestRequest creates a Request whose context carries a fresh session.
func newTestRequest(t *testing.T, db *CoreDB) *Request {
	t.Helper()
	ctx, err := db.SessionManager.Load(context.Background(), "")
	require.NoError(t, err)
	httpreq := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	return db.NewRequest(httptest.NewRecorder(), httpreq)
}

// newTestRequestSameSession creates another Request on the same session.
func newTestRequestSameSession(t *testing.T, db *CoreDB, prev *Request) *Request {
	t.Helper()
	httpreq := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(prev.request.Context())
	return db.NewRequest(httptest.NewRecorder(), httpreq)
}
