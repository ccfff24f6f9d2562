package core

type DBSample interface {
	ID() int
	Name() string
	Description() string
	TaxonID() int
	AuthorUserID() int
	TsCreated() int64
}

type SampleDB interface {
	GetSample(id int) (DBSample, error) // ErrNotFound if absent
	GetAllSamples(limit, offset int) ([]DBSample, error)
	GetSamplesOfTaxon(taxonID int, limit, offset int) ([]DBSample, error)
	GetSamplesOf(authorID int, limit, offset int) ([]DBSample, error)
	CountSamples() (int, error)
	InsertSample(name, description string, taxonID, authorID int) (DBSample, error)
	DeleteSample(actorID, id int) error // authorized delete, one transaction
	Writeable() bool
}

// InsertSample shadows SampleDB.InsertSample. The sample's taxon must exist,
// which the store checks within the insert transaction.
func (c *CoreDB) InsertSample(author DBUser, taxon DBTaxon, name, description string) (DBSample, error) {
	if author == nil {
		return nil, ErrNotLoggedIn
	}
	return c.SampleDB.InsertSample(name, description, taxon.ID(), author.ID())
}

// DeleteSample shadows SampleDB.DeleteSample.
func (c *CoreDB) DeleteSample(actor DBUser, s DBSample) error {
	if err := RequireOwnerOrAdmin(actor, s.AuthorUserID()); err != nil {
		return err
	}
	return c.SampleDB.DeleteSample(actor.ID(), s.ID())
}
