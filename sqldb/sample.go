package sqldb

import (
	"database/sql"
	"time"

	"github.com/mkranz/taxograph/core"
)

type sample struct {
	id          int
	name        string
	description string
	taxonID     int
	author      int
	tsCreated   int64
}

func (s *sample) ID() int {
	return s.id
}

func (s *sample) Name() string {
	return s.name
}

func (s *sample) Description() string {
	return s.description
}

func (s *sample) TaxonID() int {
	return s.taxonID
}

func (s *sample) AuthorUserID() int {
	return s.author
}

func (s *sample) TsCreated() int64 {
	return s.tsCreated
}

type SampleDB struct {
	*sql.DB
	count    *sql.Stmt
	delete   *sql.Stmt
	get      *sql.Stmt
	getAll   *sql.Stmt
	getOf    *sql.Stmt
	getOfTax *sql.Stmt
	getRoles *sql.Stmt
}

func NewSampleDB(db *sql.DB) *SampleDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS sample (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name varchar(128) NOT NULL,
			description text NOT NULL DEFAULT '',
			taxon int(11) NOT NULL,
			author int(11) NOT NULL,
			ts_created INTEGER NOT NULL
		);`)

	var sampleDB = &SampleDB{}
	sampleDB.DB = db
	sampleDB.count = mustPrepare(db, "SELECT COUNT(1) FROM sample")
	sampleDB.delete = mustPrepare(db, "DELETE FROM sample WHERE id = ?")
	sampleDB.get = mustPrepare(db, "SELECT name, description, taxon, author, ts_created FROM sample WHERE id = ? LIMIT 1")
	sampleDB.getAll = mustPrepare(db, "SELECT id, name, description, taxon, author, ts_created FROM sample ORDER BY ts_created DESC LIMIT ? OFFSET ?")
	sampleDB.getOf = mustPrepare(db, "SELECT id, name, description, taxon, author, ts_created FROM sample WHERE author = ? ORDER BY ts_created DESC LIMIT ? OFFSET ?")
	sampleDB.getOfTax = mustPrepare(db, "SELECT id, name, description, taxon, author, ts_created FROM sample WHERE taxon = ? ORDER BY name LIMIT ? OFFSET ?")
	sampleDB.getRoles = mustPrepare(db, "SELECT admin FROM usr WHERE id = ? LIMIT 1")
	return sampleDB
}

func (db *SampleDB) Writeable() bool {
	return true
}

func (db *SampleDB) GetSample(id int) (core.DBSample, error) {
	var s = &sample{
		id: id,
	}
	err := db.get.QueryRow(id).Scan(&s.name, &s.description, &s.taxonID, &s.author, &s.tsCreated)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *SampleDB) getMultiple(stmt *sql.Stmt, args ...interface{}) ([]core.DBSample, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples = []core.DBSample{}

	for rows.Next() {
		var s = &sample{}
		err = rows.Scan(&s.id, &s.name, &s.description, &s.taxonID, &s.author, &s.tsCreated)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func (db *SampleDB) GetAllSamples(limit, offset int) ([]core.DBSample, error) {
	return db.getMultiple(db.getAll, limit, offset)
}

func (db *SampleDB) GetSamplesOf(authorID int, limit, offset int) ([]core.DBSample, error) {
	return db.getMultiple(db.getOf, authorID, limit, offset)
}

func (db *SampleDB) GetSamplesOfTaxon(taxonID int, limit, offset int) ([]core.DBSample, error) {
	return db.getMultiple(db.getOfTax, taxonID, limit, offset)
}

func (db *SampleDB) CountSamples() (int, error) {
	var n int
	return n, db.count.QueryRow().Scan(&n)
}

// InsertSample inserts a sample. The referenced taxon must exist when the
// insert happens, checked within the same transaction.
func (db *SampleDB) InsertSample(name, description string, taxonID, authorID int) (core.DBSample, error) {

	name = clean(name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}

	var one int
	err = tx.QueryRow("SELECT 1 FROM taxon WHERE id = ? LIMIT 1", taxonID).Scan(&one)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, core.ErrNotFound
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var s = &sample{
		name:        name,
		description: description,
		taxonID:     taxonID,
		author:      authorID,
		tsCreated:   time.Now().Unix(),
	}

	res, err := tx.Exec("INSERT INTO sample (name, description, taxon, author, ts_created) VALUES (?, ?, ?, ?, ?)",
		s.name, s.description, s.taxonID, s.author, s.tsCreated)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.id = int(id)
	return s, nil
}

// DeleteSample removes a sample. The actor must be its author or an
// administrator, re-checked within the delete transaction.
func (db *SampleDB) DeleteSample(actorID, id int) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	var author int
	err = tx.Stmt(db.get).QueryRow(id).Scan(new(string), new(string), new(int), &author, new(int64))
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
