package backend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
)

var userTmpl = tmpl(`<h1>User &raquo;{{ .Selected.Name }}&laquo;</h1>

	{{ Markdown .Selected.Description }}

	<h2>Taxa</h2>

	<ul>
		{{ range .Taxa }}
			<li>{{ TaxonLink . }}</li>
		{{ end }}
	</ul>

	<h2>Samples</h2>

	<ul>
		{{ range .Samples }}
			<li>{{ SampleLink . }}</li>
		{{ end }}
	</ul>

	{{ if .IsAdmin }}

		<h2>Roles</h2>

		<form method="post">
			<div class="form-check">
				<input type="checkbox" class="form-check-input" name="admin" id="admin" {{ if .Selected.IsAdministrator }}checked{{ end }}>
				<label class="form-check-label" for="admin">Administrator</label>
			</div>
			<div class="form-check">
				<input type="checkbox" class="form-check-input" name="moderator" id="moderator" {{ if .Selected.IsModerator }}checked{{ end }}>
				<label class="form-check-label" for="moderator">Moderator</label>
			</div>
			<button type="submit" class="btn btn-primary mt-2" name="submit_roles" value="1">Save roles</button>
		</form>

	{{ end }}

	{{ if .CanDelete }}
		<p class="mt-3">
			<a class="btn btn-danger" href="delete-user/{{ .Selected.ID }}">Delete user</a>
		</p>
	{{ end }}`)

type userData struct {
	*Route
	Selected core.DBUser
}

func (data *userData) Taxa() ([]core.DBTaxon, error) {
	return data.db.GetTaxaOf(data.Selected.ID(), 1000, 0)
}

func (data *userData) Samples() ([]core.DBSample, error) {
	return data.db.GetSamplesOf(data.Selected.ID(), 1000, 0)
}

func (data *userData) CanDelete() bool {
	return core.RequireOwnerOrAdmin(data.User, data.Selected.ID()) == nil
}

func user(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	selected, err := r.db.GetUser(id)
	if err != nil {
		return err
	}

	if req.Method == http.MethodPost && req.PostFormValue("submit_roles") != "" {

		if err := r.MustBeAdministrator(); err != nil {
			return err
		}

		if err := r.db.SetAdministrator(selected, req.PostFormValue("admin") != ""); err != nil {
			return err
		}
		if err := r.db.SetModerator(selected, req.PostFormValue("moderator") != ""); err != nil {
			return err
		}

		r.Success("%s", r.T("roles-updated", map[string]interface{}{"Name": selected.Name()}))
		r.SeeOther("/user/%d", selected.ID())
		return nil
	}

	return userTmpl.Execute(w, &userData{
		Route:    r,
		Selected: selected,
	})
}

var deleteUserTmpl = tmpl(`<h1>Delete User &raquo;{{ .Selected.Name }}&laquo;</h1>

	<p>
		Taxa and samples created by this user are kept, without an author.
		<a class="btn btn-secondary" href="user/{{ .Selected.ID }}">Cancel</a>
	</p>

	<form method="post">
		<input type="submit" class="btn btn-danger" name="delete" value="Delete">
	</form>`)

func deleteUser(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	selected, err := r.db.GetUser(id)
	if err != nil {
		return err
	}

	// deleting yourself or being an administrator, checked again in the store

	if err := core.RequireOwnerOrAdmin(r.User, selected.ID()); err != nil {
		return err
	}

	if req.PostFormValue("delete") != "" {
		if err := r.db.DeleteUser(r.User, selected); err == nil {
			if r.User.ID() == selected.ID() {
				r.Logout()
			}
			r.Success("%s", r.T("user-deleted", map[string]interface{}{"Name": selected.Name()}))
			r.SeeOther("/")
			return nil
		} else if errors.Is(err, core.ErrNotFound) {
			r.SeeOther("/")
			return nil
		} else {
			r.Danger(err)
		}
	}

	return deleteUserTmpl.Execute(w, &userData{
		Route:    r,
		Selected: selected,
	})
}
