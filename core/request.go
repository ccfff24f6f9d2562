package core

import (
	"encoding/gob"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/mkranz/taxograph/locale"
	"github.com/mkranz/taxograph/logger"
	"golang.org/x/text/language"
)

// session keys
const (
	SessionUserKey = "user_id"
	SessionLangKey = "lang"
)

type Notification struct {
	Message string
	Style   string
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

var langMatcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish, // default
	language.German,
})

// A Request is created by CoreDB.NewRequest. It carries the per-request
// session state explicitly, so identity resolution never reads ambient
// globals.
type Request struct {
	db   *CoreDB // unexported, so it can't be accessed in templates
	User DBUser  // session user, nil if not logged in or stale

	// http
	writer  http.ResponseWriter
	request *http.Request

	// robustness
	statusWritten bool

	// caching
	localizer *locale.Localizer
}

// NewRequest creates a Request with the given http.ResponseWriter and
// http.Request. If a user is logged in, it sets Request.User. A stale
// session (user deleted since login) is cleared here as a side effect.
func (c *CoreDB) NewRequest(w http.ResponseWriter, httpreq *http.Request) *Request {
	var req = &Request{
		db:      c,
		writer:  w,
		request: httpreq,
	}
	if u, err := req.SessionUser(); err == nil {
		req.User = u
	} else if !errors.Is(err, ErrNotLoggedIn) {
		// a store error is not a logout, the session is kept
		logger.Warningf("resolving session user: %v", err)
	}
	return req
}

// SessionUser resolves the session's user id into a user. It returns
// ErrNotLoggedIn if there is no active session. If the session holds an id
// which no longer exists, the session entry is removed and ErrNotLoggedIn is
// returned, never ErrNotFound.
func (req *Request) SessionUser() (DBUser, error) {
	uid := req.db.SessionManager.GetInt(req.request.Context(), SessionUserKey)
	if uid == 0 {
		return nil, ErrNotLoggedIn
	}
	u, err := req.db.GetUser(uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			req.db.SessionManager.Remove(req.request.Context(), SessionUserKey)
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	return u, nil
}

func (req *Request) LoggedIn() bool {
	return req.User != nil
}

// LoginExternal logs in the user asserted by an external identity provider,
// creating the user on first sight. It refuses to run over an active
// session.
func (req *Request) LoginExternal(extid string) (DBUser, error) {
	if req.LoggedIn() {
		return nil, ErrAlreadyAuthenticated
	}
	u, err := req.db.GetOrInsertByExternalID(extid)
	if err != nil {
		return nil, err
	}
	req.db.SessionManager.Put(req.request.Context(), SessionUserKey, u.ID())
	req.User = u
	return u, nil
}

// Logout removes the user id from the session and calls req.Cleanup().
// It is idempotent, calling it without an active session is fine.
func (req *Request) Logout() {
	req.db.SessionManager.Remove(req.request.Context(), SessionUserKey)
	req.User = nil
	req.Cleanup()
}

// MustBeAdministrator resolves the session user and returns ErrUnauthorized
// if the user is not an administrator.
func (req *Request) MustBeAdministrator() error {
	u, err := req.SessionUser()
	if err != nil {
		return err
	}
	if !u.IsAdministrator() {
		return ErrUnauthorized
	}
	return nil
}

// MustBeModerator resolves the session user and returns ErrUnauthorized if
// the user is not a moderator.
func (req *Request) MustBeModerator() error {
	u, err := req.SessionUser()
	if err != nil {
		return err
	}
	if !u.IsModerator() {
		return ErrUnauthorized
	}
	return nil
}

// Language returns the session language, falling back to Accept-Language
// matching and finally to "en".
func (req *Request) Language() string {
	if lang := req.db.SessionManager.GetString(req.request.Context(), SessionLangKey); lang != "" {
		return lang
	}
	tag, _ := language.MatchStrings(langMatcher, req.request.Header.Get("Accept-Language"))
	base, _ := tag.Base()
	return base.String()
}

// SetLanguage stores a language in the session.
func (req *Request) SetLanguage(lang string) error {
	if !locale.Supported(lang) {
		return fmt.Errorf("unknown language: %s", lang)
	}
	req.db.SessionManager.Put(req.request.Context(), SessionLangKey, lang)
	req.localizer = nil
	return nil
}

// T translates a message id.
func (req *Request) T(id string, data map[string]interface{}) string {
	if req.localizer == nil {
		req.localizer = locale.New(req.Language())
	}
	return req.localizer.Tr(id, data)
}

// Danger adds a "danger" notification to the session.
func (req *Request) Danger(err error) {
	req.addNotification(err.Error(), "danger")
}

// Success adds a "success" notification to the session.
func (req *Request) Success(format string, args ...interface{}) {
	req.addNotification(fmt.Sprintf(format, args...), "success")
}

// style should be a bootstrap alert style without the leading "alert-"
func (req *Request) addNotification(message, style string) {
	notifications, _ := req.db.SessionManager.Get(req.request.Context(), "notifications").([]Notification)
	notifications = append(notifications, Notification{message, style})
	req.db.SessionManager.Put(req.request.Context(), "notifications", notifications)
}

// RenderNotifications removes all notifications from the session and renders
// them into an HTML string. If the HTTP status had already been written, it
// does nothing.
func (req *Request) RenderNotifications() template.HTML {
	var r string
	if !req.statusWritten {
		notifications, _ := req.db.SessionManager.Pop(req.request.Context(), "notifications").([]Notification)
		for _, n := range notifications {
			r += `<div class="alert alert-` + n.Style + ` mt-3" role="alert">` + template.HTMLEscapeString(n.Message) + `</div>`
		}
	}
	return template.HTML(r)
}

// Destroys the session (which means re-setting the cookie with zero
// lifetime) if the session has been modified and is empty now.
func (req *Request) Cleanup() {
	sessMan := req.db.SessionManager
	if sessMan.Status(req.request.Context()) == scs.Modified && len(sessMan.Keys(req.request.Context())) == 0 {
		_ = sessMan.Destroy(req.request.Context())
	}
}

// SeeOther sets the HTTP header to redirect to an URL.
func (req *Request) SeeOther(format string, args ...interface{}) {
	if req.statusWritten {
		return
	}
	var url = fmt.Sprintf(format, args...)
	http.Redirect(req.writer, req.request, url, http.StatusSeeOther)
	req.statusWritten = true
}

// PutSessionString stores a string value in the session.
func (req *Request) PutSessionString(key, value string) {
	req.db.SessionManager.Put(req.request.Context(), key, value)
}

// PopSessionString removes and returns a string value from the session.
func (req *Request) PopSessionString(key string) string {
	return req.db.SessionManager.PopString(req.request.Context(), key)
}
