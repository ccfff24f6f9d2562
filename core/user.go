package core

type DBUser interface {
	ID() int
	Name() string
	Description() string
	IsAdministrator() bool
	IsModerator() bool
}

// UserDB persists user rows and the mapping from external identifiers
// (ORCID iDs) to user ids.
//
// GetOrInsertByExternalID resolves an external identifier to a user, creating
// the user row and the mapping row in one transaction if the identifier has
// never been seen. Two concurrent calls with the same new identifier must
// yield the same user: the mapping table's uniqueness constraint decides the
// winner and the loser retries as a plain lookup. A constraint violation
// never reaches the caller.
//
// DeleteUser removes a user row and its external-identifier mapping. The
// actor must be the user itself or an administrator. Role flags and the
// target row are re-read inside the delete transaction, so a concurrent role
// change cannot slip between check and execution.
type UserDB interface {
	GetUser(id int) (DBUser, error)                       // ErrNotFound if absent
	GetUserByExternalID(extid string) (DBUser, error)     // ErrNotFound if unmapped
	GetOrInsertByExternalID(extid string) (DBUser, error)
	GetAllUsers(limit, offset int) ([]DBUser, error)
	CountUsers() (int, error)
	DeleteUser(actorID, id int) error
	SetAdministrator(u DBUser, admin bool) error
	SetModerator(u DBUser, moderator bool) error
	Writeable() bool
}

// DeleteUser shadows UserDB.DeleteUser. Deleting oneself is modeled as
// owning oneself, so the same owner-or-admin rule applies as for any record.
func (c *CoreDB) DeleteUser(actor DBUser, u DBUser) error {
	if err := RequireOwnerOrAdmin(actor, u.ID()); err != nil {
		return err
	}
	return c.UserDB.DeleteUser(actor.ID(), u.ID())
}
