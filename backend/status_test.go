package backend

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mkranz/taxograph/core"
	"github.com/stretchr/testify/assert"
)

func TestErrStatus(t *testing.T) {

	assert.Equal(t, http.StatusOK, errStatus(nil))
	assert.Equal(t, http.StatusNotFound, errStatus(core.ErrNotFound))
	assert.Equal(t, http.StatusUnauthorized, errStatus(core.ErrNotLoggedIn))
	assert.Equal(t, http.StatusForbidden, errStatus(core.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, errStatus(errors.New("disk I/O error")))

	// wrapped sentinels must keep their status
	assert.Equal(t, http.StatusNotFound, errStatus(fmt.Errorf("get taxon: %w", core.ErrNotFound)))
	assert.Equal(t, http.StatusForbidden, errStatus(fmt.Errorf("delete sample: %w", core.ErrUnauthorized)))
}
