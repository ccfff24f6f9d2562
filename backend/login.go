package backend

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
	"github.com/mkranz/taxograph/util"
)

const stateSessionKey = "orcid_state"

var ErrState = errors.New("state mismatch") // stale login attempt or CSRF

var loginTmpl = tmpl(`<h1>Login</h1>
	<p>
		Sign in with your ORCID iD. An account is created on first login.
	</p>
	<p>
		<a class="btn btn-primary" href="login/orcid">Sign in with ORCID</a>
	</p>`)

func login(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {
	if r.LoggedIn() {
		r.SeeOther("/")
		return nil
	}
	return loginTmpl.Execute(w, r)
}

// loginORCID starts the redirect flow. The state nonce is kept in the
// session and checked in the callback.
func loginORCID(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	if r.LoggedIn() {
		r.Danger(errors.New(r.T("already-logged-in", nil)))
		r.SeeOther("/")
		return nil
	}

	state, err := util.RandomString32()
	if err != nil {
		return err
	}
	r.PutSessionString(stateSessionKey, state)

	r.SeeOther("%s", r.orcid.AuthorizeURL(state))
	return nil
}

// loginORCIDCallback receives the redirect back from ORCID. The asserted iD
// is all this application takes from the handshake.
func loginORCIDCallback(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	if state := req.URL.Query().Get("state"); state == "" || state != r.PopSessionString(stateSessionKey) {
		return ErrState
	}

	code := req.URL.Query().Get("code")
	if code == "" {
		r.Danger(errors.New(r.T("login-failed", nil)))
		r.SeeOther("/login")
		return nil
	}

	extid, err := r.orcid.Exchange(req.Context(), code)
	if err != nil {
		r.Danger(errors.New(r.T("login-failed", nil)))
		r.SeeOther("/login")
		return nil
	}

	u, err := r.LoginExternal(extid)
	if err != nil {
		if errors.Is(err, core.ErrAlreadyAuthenticated) {
			r.SeeOther("/")
			return nil
		}
		return err
	}

	r.Success("%s", r.T("welcome", map[string]interface{}{"Name": u.Name()}))
	r.SeeOther("/")
	return nil
}
