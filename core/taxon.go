package core

type DBTaxon interface {
	ID() int
	Name() string
	Description() string
	AuthorUserID() int
	TsCreated() int64
}

type TaxonDB interface {
	GetTaxon(id int) (DBTaxon, error) // ErrNotFound if absent
	GetAllTaxa(limit, offset int) ([]DBTaxon, error)
	GetTaxaOf(authorID int, limit, offset int) ([]DBTaxon, error)
	CountTaxa() (int, error)
	InsertTaxon(name, description string, authorID int) (DBTaxon, error)
	DeleteTaxon(actorID, id int) error // authorized delete, one transaction
	Writeable() bool
}

// InsertTaxon shadows TaxonDB.InsertTaxon.
func (c *CoreDB) InsertTaxon(author DBUser, name, description string) (DBTaxon, error) {
	if author == nil {
		return nil, ErrNotLoggedIn
	}
	return c.TaxonDB.InsertTaxon(name, description, author.ID())
}

// DeleteTaxon shadows TaxonDB.DeleteTaxon.
func (c *CoreDB) DeleteTaxon(actor DBUser, t DBTaxon) error {
	if err := RequireOwnerOrAdmin(actor, t.AuthorUserID()); err != nil {
		return err
	}
	return c.TaxonDB.DeleteTaxon(actor.ID(), t.ID())
}
