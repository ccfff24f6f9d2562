package sqldb

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mkranz/taxograph/core"
)

var ErrNameEmpty = errors.New("name can't be empty")

type taxon struct {
	id          int
	name        string
	description string
	author      int
	tsCreated   int64
}

func (t *taxon) ID() int {
	return t.id
}

func (t *taxon) Name() string {
	return t.name
}

func (t *taxon) Description() string {
	return t.description
}

func (t *taxon) AuthorUserID() int {
	return t.author
}

func (t *taxon) TsCreated() int64 {
	return t.tsCreated
}

type TaxonDB struct {
	*sql.DB
	count    *sql.Stmt
	delete   *sql.Stmt
	get      *sql.Stmt
	getAll   *sql.Stmt
	getOf    *sql.Stmt
	insert   *sql.Stmt
	getRoles *sql.Stmt
}

func NewTaxonDB(db *sql.DB) *TaxonDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS taxon (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name varchar(128) NOT NULL,
			description text NOT NULL DEFAULT '',
			author int(11) NOT NULL,
			ts_created INTEGER NOT NULL,
			UNIQUE(name)
		);`)

	var taxonDB = &TaxonDB{}
	taxonDB.DB = db
	taxonDB.count = mustPrepare(db, "SELECT COUNT(1) FROM taxon")
	taxonDB.delete = mustPrepare(db, "DELETE FROM taxon WHERE id = ?")
	taxonDB.get = mustPrepare(db, "SELECT name, description, author, ts_created FROM taxon WHERE id = ? LIMIT 1")
	taxonDB.getAll = mustPrepare(db, "SELECT id, name, description, author, ts_created FROM taxon ORDER BY name LIMIT ? OFFSET ?")
	taxonDB.getOf = mustPrepare(db, "SELECT id, name, description, author, ts_created FROM taxon WHERE author = ? ORDER BY name LIMIT ? OFFSET ?")
	taxonDB.insert = mustPrepare(db, "INSERT INTO taxon (name, description, author, ts_created) VALUES (?, ?, ?, ?)")
	taxonDB.getRoles = mustPrepare(db, "SELECT admin FROM usr WHERE id = ? LIMIT 1")
	return taxonDB
}

func (db *TaxonDB) Writeable() bool {
	return true
}

func (db *TaxonDB) GetTaxon(id int) (core.DBTaxon, error) {
	var t = &taxon{
		id: id,
	}
	err := db.get.QueryRow(id).Scan(&t.name, &t.description, &t.author, &t.tsCreated)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *TaxonDB) getMultiple(stmt *sql.Stmt, args ...interface{}) ([]core.DBTaxon, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taxa = []core.DBTaxon{}

	for rows.Next() {
		var t = &taxon{}
		err = rows.Scan(&t.id, &t.name, &t.description, &t.author, &t.tsCreated)
		if err != nil {
			return nil, err
		}
		taxa = append(taxa, t)
	}

	return taxa, nil
}

func (db *TaxonDB) GetAllTaxa(limit, offset int) ([]core.DBTaxon, error) {
	return db.getMultiple(db.getAll, limit, offset)
}

func (db *TaxonDB) GetTaxaOf(authorID int, limit, offset int) ([]core.DBTaxon, error) {
	return db.getMultiple(db.getOf, authorID, limit, offset)
}

func (db *TaxonDB) CountTaxa() (int, error) {
	var n int
	return n, db.count.QueryRow().Scan(&n)
}

func (db *TaxonDB) InsertTaxon(name, description string, authorID int) (core.DBTaxon, error) {

	name = clean(name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	var t = &taxon{
		name:        name,
		description: description,
		author:      authorID,
		tsCreated:   time.Now().Unix(),
	}

	res, err := db.insert.Exec(t.name, t.description, t.author, t.tsCreated)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	t.id = int(id)
	return t, nil
}

// DeleteTaxon removes a taxon. The actor must be its author or an
// administrator, re-checked within the delete transaction.
func (db *TaxonDB) DeleteTaxon(actorID, id int) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	var author int
	err = tx.Stmt(db.get).QueryRow(id).Scan(new(string), new(string), &author, new(int64))
	if err == sql.ErrNoRows {
		tx.Rollback()
		return core.ErrNotFound
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	if actorID != author {
		var admin bool
		err = tx.Stmt(db.getRoles).QueryRow(actorID).Scan(&admin)
		if err == sql.ErrNoRows || (err == nil && !admin) {
			tx.Rollback()
			return core.ErrUnauthorized
		}
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if _, err := tx.Stmt(db.delete).Exec(id); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
