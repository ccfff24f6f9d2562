package sqldb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkranz/taxograph/core"
)

type user struct {
	id          int
	name        string
	description string
	admin       bool
	moderator   bool
}

func (u *user) ID() int {
	return u.id
}

func (u *user) Name() string {
	return u.name
}

func (u *user) Description() string {
	return u.description
}

func (u *user) IsAdministrator() bool {
	return u.admin
}

func (u *user) IsModerator() bool {
	return u.moderator
}

type UserDB struct {
	*sql.DB
	count         *sql.Stmt
	delete        *sql.Stmt
	deleteMapping *sql.Stmt
	exists        *sql.Stmt
	get           *sql.Stmt
	getAll        *sql.Stmt
	getByOrcid    *sql.Stmt
	getRoles      *sql.Stmt
	setAdmin      *sql.Stmt
	setModerator  *sql.Stmt
}

func NewUserDB(db *sql.DB) *UserDB {

	// AUTOINCREMENT keeps deleted ids from being handed out again, a
	// dangling author reference must never point at a later user
	db.Exec(
		`CREATE TABLE IF NOT EXISTS usr (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name varchar(128) NOT NULL,
			description text NOT NULL DEFAULT '',
			admin int(1) NOT NULL DEFAULT 0,
			moderator int(1) NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS orcid (
			orcid varchar(19) NOT NULL,
			usr int(11) NOT NULL,
			UNIQUE(orcid)
		);`)

	var userDB = &UserDB{}
	userDB.DB = db
	userDB.count = mustPrepare(db, "SELECT COUNT(1) FROM usr")
	userDB.delete = mustPrepare(db, "DELETE FROM usr WHERE id = ?")
	userDB.deleteMapping = mustPrepare(db, "DELETE FROM orcid WHERE usr = ?")
	userDB.exists = mustPrepare(db, "SELECT 1 FROM usr WHERE id = ? LIMIT 1")
	userDB.get = mustPrepare(db, "SELECT name, description, admin, moderator FROM usr WHERE id = ? LIMIT 1")
	userDB.getAll = mustPrepare(db, "SELECT id, name, description, admin, moderator FROM usr ORDER BY name LIMIT ? OFFSET ?")
	userDB.getByOrcid = mustPrepare(db, "SELECT usr.id, usr.name, usr.description, usr.admin, usr.moderator FROM usr, orcid WHERE usr.id = orcid.usr AND orcid.orcid = ? LIMIT 1")
	userDB.getRoles = mustPrepare(db, "SELECT admin, moderator FROM usr WHERE id = ? LIMIT 1")
	userDB.setAdmin = mustPrepare(db, "UPDATE usr SET admin = ? WHERE id = ?")
	userDB.setModerator = mustPrepare(db, "UPDATE usr SET moderator = ? WHERE id = ?")
	return userDB
}

func (db *UserDB) Writeable() bool {
	return true
}

func (db *UserDB) GetUser(id int) (core.DBUser, error) {
	var u = &user{
		id: id,
	}
	err := db.get.QueryRow(id).Scan(&u.name, &u.description, &u.admin, &u.moderator)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *UserDB) GetUserByExternalID(extid string) (core.DBUser, error) {
	var u = &user{}
	err := db.getByOrcid.QueryRow(clean(extid)).Scan(&u.id, &u.name, &u.description, &u.admin, &u.moderator)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetOrInsertByExternalID looks up an external identifier and creates a user
// for it if it has never been seen. The user row and the mapping row are
// inserted in one transaction. If a concurrent call wins the insert, the
// UNIQUE constraint on the mapping fires, the transaction is rolled back and
// the call degrades to a lookup.
func (db *UserDB) GetOrInsertByExternalID(extid string) (core.DBUser, error) {

	extid = clean(extid)

	for attempt := 0; attempt < 2; attempt++ {

		u, err := db.GetUserByExternalID(extid)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}

		u, err = db.insertWithMapping(extid)
		if err == nil {
			return u, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user for %s: %w", extid, err)
		}
		// lost the race, retry as a lookup
	}

	return db.GetUserByExternalID(extid)
}

// insertWithMapping inserts a user row and its external-identifier mapping,
// succeeding or failing together. The new user is named after the identifier
// until a profile name is set.
func (db *UserDB) insertWithMapping(extid string) (core.DBUser, error) {

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec("INSERT INTO usr (name) VALUES (?)", extid)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	_, err = tx.Exec("INSERT INTO orcid (orcid, usr) VALUES (?, ?)", extid, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &user{
		id:   int(id),
		name: extid,
	}, nil
}

func (db *UserDB) GetAllUsers(limit, offset int) ([]core.DBUser, error) {

	var all = []core.DBUser{}

	rows, err := db.getAll.Query(limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u = &user{}
		err = rows.Scan(&u.id, &u.name, &u.description, &u.admin, &u.moderator)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	return all, nil
}

func (db *UserDB) CountUsers() (int, error) {
	var n int
	return n, db.count.QueryRow().Scan(&n)
}

// DeleteUser removes a user row and its mapping. Authorization (the actor is
// the user itself or an administrator) is evaluated on role flags re-read
// within the delete transaction.
func (db *UserDB) DeleteUser(actorID, id int) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	var admin, moderator bool
	err = tx.Stmt(db.getRoles).QueryRow(actorID).Scan(&admin, &moderator)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return core.ErrUnauthorized // actor vanished
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	var one int
	err = tx.Stmt(db.exists).QueryRow(id).Scan(&one)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return core.ErrNotFound
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	if actorID != id && !admin {
		tx.Rollback()
		return core.ErrUnauthorized
	}

	if _, err := tx.Stmt(db.deleteMapping).Exec(id); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Stmt(db.delete).Exec(id); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (db *UserDB) SetAdministrator(u core.DBUser, admin bool) error {
	_, err := db.setAdmin.Exec(admin, u.ID())
	if err == nil {
		u.(*user).admin = admin
	}
	return err
}

func (db *UserDB) SetModerator(u core.DBUser, moderator bool) error {
	_, err := db.setModerator.Exec(moderator, u.ID())
	if err == nil {
		u.(*user).moderator = moderator
	}
	return err
}
