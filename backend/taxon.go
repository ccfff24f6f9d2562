package backend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
)

var taxonTmpl = tmpl(`<h1>Taxon &raquo;{{ .Selected.Name }}&laquo;</h1>

	<p>
		Created {{ FormatTs .Selected.TsCreated }} by {{ .AuthorName }}
	</p>

	{{ Markdown .Selected.Description }}

	{{ if .CanDelete }}
		<p>
			<a class="btn btn-danger" href="delete-taxon/{{ .Selected.ID }}">Delete</a>
		</p>
	{{ end }}

	<h2>Samples</h2>

	{{ if .LoggedIn }}
		<p>
			<a class="btn btn-primary" href="create-sample/{{ .Selected.ID }}">Add sample</a>
		</p>
	{{ end }}

	<ul>
		{{ range .Samples }}
			<li>{{ SampleLink . }}</li>
		{{ end }}
	</ul>`)

type taxonData struct {
	*Route
	Selected core.DBTaxon
}

// AuthorName tolerates a dangling author reference, the author may have been
// deleted after the taxon was created.
func (data *taxonData) AuthorName() string {
	author, err := data.db.GetUser(data.Selected.AuthorUserID())
	if err != nil {
		return "deleted user"
	}
	return author.Name()
}

func (data *taxonData) CanDelete() bool {
	return core.RequireOwnerOrAdmin(data.User, data.Selected.AuthorUserID()) == nil
}

func (data *taxonData) Samples() ([]core.DBSample, error) {
	return data.db.GetSamplesOfTaxon(data.Selected.ID(), 1000, 0)
}

func taxonView(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	selected, err := r.db.GetTaxon(id)
	if err != nil {
		return err
	}

	return taxonTmpl.Execute(w, &taxonData{
		Route:    r,
		Selected: selected,
	})
}

var createTaxonTmpl = tmpl(`<h1>Create Taxon</h1>

	<form method="post">
		<div class="form-group">
			<label>Name</label>
			<input type="text" class="form-control" name="name" value="{{ .Name }}" required autofocus>
		</div>
		<div class="form-group">
			<label>Description (CommonMark)</label>
			<textarea class="form-control" name="description" rows="8">{{ .Description }}</textarea>
		</div>
		<button type="submit" class="btn btn-primary" name="create">Create</button>
	</form>`)

type createTaxonData struct {
	*Route
	Name        string
	Description string
}

func createTaxon(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	var name, description string

	if req.Method == http.MethodPost {

		name = req.PostFormValue("name")
		description = req.PostFormValue("description")

		t, err := r.db.InsertTaxon(r.User, name, description)
		if err == nil {
			r.Success("%s", r.T("taxon-created", map[string]interface{}{"Name": t.Name()}))
			r.SeeOther("/taxon/%d", t.ID())
			return nil
		}
		r.Danger(err)
		// keep POST data for the form
	}

	return createTaxonTmpl.Execute(w, &createTaxonData{
		Route:       r,
		Name:        name,
		Description: description,
	})
}

var deleteTaxonTmpl = tmpl(`<h1>Delete Taxon &raquo;{{ .Selected.Name }}&laquo;</h1>

	<p>
		This also leaves its samples without a taxon.
		<a class="btn btn-secondary" href="taxon/{{ .Selected.ID }}">Cancel</a>
	</p>

	<form method="post">
		<input type="submit" class="btn btn-danger" name="delete" value="Delete">
	</form>`)

func deleteTaxon(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	selected, err := r.db.GetTaxon(id)
	if err != nil {
		return err
	}

	// check permission before rendering, the store checks again when deleting

	if err := core.RequireOwnerOrAdmin(r.User, selected.AuthorUserID()); err != nil {
		return err
	}

	if req.PostFormValue("delete") != "" {
		if err := r.db.DeleteTaxon(r.User, selected); err == nil {
			r.Success("%s", r.T("taxon-deleted", map[string]interface{}{"Name": selected.Name()}))
			r.SeeOther("/taxa/1")
			return nil
		} else if errors.Is(err, core.ErrNotFound) {
			r.SeeOther("/taxa/1") // someone else was faster
			return nil
		} else {
			r.Danger(err)
		}
	}

	return deleteTaxonTmpl.Execute(w, &taxonData{
		Route:    r,
		Selected: selected,
	})
}
