package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireOwnerOrAdmin(t *testing.T) {

	var author = &testUser{id: 7}
	var stranger = &testUser{id: 9}
	var admin = &testUser{id: 3, admin: true}

	tests := []struct {
		name     string
		user     DBUser
		authorID int
		want     error
	}{
		{"author may mutate own record", author, 7, nil},
		{"stranger may not", stranger, 7, ErrUnauthorized},
		{"admin may mutate any record", admin, 7, nil},
		{"admin may mutate own record", admin, 3, nil},
		{"nobody logged in", nil, 7, ErrNotLoggedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, RequireOwnerOrAdmin(tt.user, tt.authorID), tt.want)
		})
	}
}
