package core

// RequireOwnerOrAdmin is the one mutation predicate: the acting user must be
// the author of the record (or the record itself, for users) or an
// administrator. All delete paths go through here, none reimplements the
// rule.
func RequireOwnerOrAdmin(u DBUser, authorID int) error {
	if u == nil {
		return ErrNotLoggedIn
	}
	if u.ID() == authorID {
		return nil
	}
	if u.IsAdministrator() {
		return nil
	}
	return ErrUnauthorized
}
