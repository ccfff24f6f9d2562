// Package backend is the server-rendered web interface.
package backend

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
	"github.com/mkranz/taxograph/orcid"
)

// A Route carries the request plus what the handlers need beyond it.
type Route struct {
	*core.Request
	Prefix string // with trailing slash
	db     *core.CoreDB
	orcid  *orcid.Client
}

func (r *Route) UsersWriteable() bool {
	return r.db.UserDB.Writeable()
}

func (r *Route) TaxaWriteable() bool {
	return r.db.TaxonDB.Writeable()
}

func (r *Route) SamplesWriteable() bool {
	return r.db.SampleDB.Writeable()
}

// IsAdmin returns whether the session user is an administrator. For
// rendering only, mutations are guarded separately.
func (r *Route) IsAdmin() bool {
	return r.User != nil && r.User.IsAdministrator()
}

// IsModerator returns whether the session user is a moderator. For rendering
// only.
func (r *Route) IsModerator() bool {
	return r.User != nil && r.User.IsModerator()
}

type Router struct {
	db     *core.CoreDB
	orcid  *orcid.Client
	prefix string
}

func (router *Router) middleware(requireLoggedIn bool, f func(http.ResponseWriter, *http.Request, *Route, httprouter.Params) error) func(http.ResponseWriter, *http.Request, httprouter.Params) {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var r = &Route{
			Prefix:  router.prefix + "/",
			Request: router.db.NewRequest(w, req),
			db:      router.db,
			orcid:   router.orcid,
		}
		defer r.Cleanup()

		if requireLoggedIn && !r.LoggedIn() {
			r.SeeOther("/login")
			return
		}

		if err := f(w, req, r, params); err != nil {
			// probably no template has been executed yet, so execute the error template
			w.WriteHeader(errStatus(err))
			errorTmpl.Execute(w, struct {
				*Route
				Err error
			}{
				Route: r,
				Err:   err,
			})
		}
	}
}

func errStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

var errorTmpl = tmpl(`
	<div class="alert alert-danger" role="alert">
		{{ .Err }}
	</div>`)

func NewBackendRouter(db *core.CoreDB, oc *orcid.Client, prefix string) http.Handler {

	var b = &Router{
		db:     db,
		orcid:  oc,
		prefix: prefix,
	}

	var router = httprouter.New()

	var GETAndPOST = func(path string, handle httprouter.Handle) {
		router.GET(path, handle)
		router.POST(path, handle)
	}

	// public
	router.GET("/", b.middleware(false, root))
	router.GET("/login", b.middleware(false, login))
	router.GET("/login/orcid", b.middleware(false, loginORCID))
	router.GET("/login/orcid/callback", b.middleware(false, loginORCIDCallback))
	router.GET("/logout", b.middleware(false, logout)) // logging out without a session is fine
	router.GET("/lang/:code", b.middleware(false, setLanguage))
	router.GET("/taxa/:page", b.middleware(false, taxa))
	router.GET("/taxon/:id", b.middleware(false, taxonView))
	router.GET("/sample/:id", b.middleware(false, sampleView))
	router.POST("/enrichers/ping", b.middleware(false, enricherPing))

	// private
	GETAndPOST("/create-taxon", b.middleware(true, createTaxon))
	GETAndPOST("/create-sample/:taxon", b.middleware(true, createSample))
	GETAndPOST("/delete-taxon/:id", b.middleware(true, deleteTaxon))
	GETAndPOST("/delete-sample/:id", b.middleware(true, deleteSample))
	GETAndPOST("/delete-user/:id", b.middleware(true, deleteUser))
	router.GET("/users/:page", b.middleware(true, users))
	GETAndPOST("/user/:id", b.middleware(true, user))
	router.GET("/moderation", b.middleware(true, moderation))
	router.GET("/enrichers", b.middleware(true, enrichers))

	return router
}

func tmpl(text string) *template.Template {
	t := template.Must(backendTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var backendTmpl = template.Must(template.New("backend").Funcs(
	template.FuncMap{
		"FormatTs": FormatTs,
		"LastSeen": LastSeen,
		"Markdown": RenderMarkdown,
		"Excerpt": func(description string) string {
			return ExcerptMarkdown(description, 160)
		},
		"UserLink": func(user core.DBUser) template.HTML {
			return template.HTML(fmt.Sprintf(`<a href="user/%d">%s</a>`, user.ID(), template.HTMLEscapeString(user.Name())))
		},
		"TaxonLink": func(taxon core.DBTaxon) template.HTML {
			return template.HTML(fmt.Sprintf(`<a href="taxon/%d">%s</a>`, taxon.ID(), template.HTMLEscapeString(taxon.Name())))
		},
		"SampleLink": func(sample core.DBSample) template.HTML {
			return template.HTML(fmt.Sprintf(`<a href="sample/%d">%s</a>`, sample.ID(), template.HTMLEscapeString(sample.Name())))
		},
	},
).Parse(`
<!DOCTYPE html>
<html>
	<head>
		<base href="{{ .Prefix }}">
		<link rel="stylesheet" type="text/css" href="/assets/bootstrap-4.4.1.min.css">
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
		<title>Taxograph</title>

		<style>

			body {
				padding-bottom: 1rem;
			}

			h1 {
				font-size: 1.5rem !important;
				margin: 1rem 0 0.7rem !important;
			}

			h2 {
				font-size: 1.3rem !important;
				margin: 0.2rem 0 0.5rem !important;
			}

			table {
				margin-top: 0.5rem;
				border-bottom: 1px solid #dee2e6;
			}

			textarea {
				tab-size: 4;
				-moz-tab-size: 4;
			}

		</style>
	</head>
	<body>

		<nav class="navbar navbar-expand-md bg-light">
			<ul class="navbar-nav">
				<li class="nav-item">
					<a class="nav-link" href="taxa/1">Taxa</a>
				</li>

				{{ if .LoggedIn }}

					<li class="nav-item">
						<a class="nav-link" href="user/{{ .User.ID }}">{{ .User.Name }}</a>
					</li>

					{{ if .IsModerator }}
						<li class="nav-item">
							<a class="nav-link" href="moderation">Moderation</a>
						</li>
					{{ end }}

					{{ if .IsAdmin }}
						<li class="nav-item">
							<a class="nav-link" href="users/1">Users</a>
						</li>
						<li class="nav-item">
							<a class="nav-link" href="enrichers">Enrichers</a>
						</li>
					{{ end }}

					<li class="nav-item">
						<a class="nav-link" href="logout">Logout</a>
					</li>

				{{ else }}

					<li class="nav-item">
						<a class="nav-link" href="login">Login</a>
					</li>

				{{ end }}

				<li class="nav-item">
					<a class="nav-link" href="lang/en">en</a>
				</li>
				<li class="nav-item">
					<a class="nav-link" href="lang/de">de</a>
				</li>
			</ul>
		</nav>

		<div class="container pt-3">
			{{ .RenderNotifications }}
			{{ template "content" . }}
		</div>
	</body>
</html>`))
