package sqldb

import (
	"database/sql"
	"time"

	"github.com/mkranz/taxograph/core"
)

type enricher struct {
	id       int
	name     string
	lastPing int64
}

func (e *enricher) ID() int {
	return e.id
}

func (e *enricher) Name() string {
	return e.name
}

func (e *enricher) LastPing() time.Time {
	return time.Unix(e.lastPing, 0)
}

type EnricherDB struct {
	*sql.DB
	getAll   *sql.Stmt
	getToken *sql.Stmt
	insert   *sql.Stmt
	ping     *sql.Stmt
	prune    *sql.Stmt
}

func NewEnricherDB(db *sql.DB) *EnricherDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS enricher (
			id INTEGER PRIMARY KEY,
			name varchar(80) NOT NULL,
			token varchar(64) NOT NULL,
			last_ping INTEGER NOT NULL,
			UNIQUE(name)
		);`)

	var enricherDB = &EnricherDB{}
	enricherDB.DB = db
	enricherDB.getAll = mustPrepare(db, "SELECT id, name, last_ping FROM enricher ORDER BY name LIMIT ? OFFSET ?")
	enricherDB.getToken = mustPrepare(db, "SELECT token FROM enricher WHERE name = ? LIMIT 1")
	enricherDB.insert = mustPrepare(db, "INSERT INTO enricher (name, token, last_ping) VALUES (?, ?, ?)")
	enricherDB.ping = mustPrepare(db, "UPDATE enricher SET last_ping = ? WHERE name = ?")
	enricherDB.prune = mustPrepare(db, "DELETE FROM enricher WHERE last_ping < ?")
	return enricherDB
}

func (db *EnricherDB) Writeable() bool {
	return true
}

func (db *EnricherDB) GetAllEnrichers(limit, offset int) ([]core.DBEnricher, error) {

	var all = []core.DBEnricher{}

	rows, err := db.getAll.Query(limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e = &enricher{}
		err = rows.Scan(&e.id, &e.name, &e.lastPing)
		if err != nil {
			return nil, err
		}
		all = append(all, e)
	}

	return all, nil
}

func (db *EnricherDB) InsertEnricher(name, tokenHash string) error {
	name = clean(name)
	if name == "" {
		return ErrNameEmpty
	}
	_, err := db.insert.Exec(name, tokenHash, time.Now().Unix())
	return err
}

func (db *EnricherDB) TokenHash(name string) (string, error) {
	var hash string
	err := db.getToken.QueryRow(clean(name)).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", core.ErrNotFound
	}
	return hash, err
}

func (db *EnricherDB) Ping(name string) error {
	res, err := db.ping.Exec(time.Now().Unix(), clean(name))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (db *EnricherDB) PruneEnrichers(lastPingBefore time.Time) (int, error) {
	res, err := db.prune.Exec(lastPingBefore.Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
