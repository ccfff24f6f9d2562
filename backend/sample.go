package backend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
)

var sampleTmpl = tmpl(`<h1>Sample &raquo;{{ .Selected.Name }}&laquo;</h1>

	<p>
		Taxon: {{ with .Taxon }}{{ TaxonLink . }}{{ else }}deleted taxon{{ end }}<br>
		Created {{ FormatTs .Selected.TsCreated }} by {{ .AuthorName }}
	</p>

	{{ Markdown .Selected.Description }}

	{{ if .CanDelete }}
		<p>
			<a class="btn btn-danger" href="delete-sample/{{ .Selected.ID }}">Delete</a>
		</p>
	{{ end }}`)

type sampleData struct {
	*Route
	Selected core.DBSample
}

func (data *sampleData) AuthorName() string {
	author, err := data.db.GetUser(data.Selected.AuthorUserID())
	if err != nil {
		return "deleted user"
	}
	return author.Name()
}

// Taxon returns nil if the sample's taxon has been deleted meanwhile.
func (data *sampleData) Taxon() core.DBTaxon {
	t, err := data.db.GetTaxon(data.Selected.TaxonID())
	if err != nil {
		return nil
	}
	return t
}

func (data *sampleData) CanDelete() bool {
	return core.RequireOwnerOrAdmin(data.User, data.Selected.AuthorUserID()) == nil
}

func sampleView(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	selected, err := r.db.GetSample(id)
	if err != nil {
		return err
	}

	return sampleTmpl.Execute(w, &sampleData{
		Route:    r,
		Selected: selected,
	})
}

var createSampleTmpl = tmpl(`<h1>Add Sample to &raquo;{{ .Taxon.Name }}&laquo;</h1>

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

type createSampleData struct {
	*Route
	Taxon       core.DBTaxon
	Name        string
	Description string
}

func createSample(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	taxonID, err := strconv.Atoi(params.ByName("taxon"))
	if err != nil {
		return core.ErrNotFound
	}

	taxon, err := r.db.GetTaxon(taxonID)
	if err != nil {
		return err
	}

	var name, description string

	if req.Method == http.MethodPost {

		name = req.PostFormValue("name")
		description = req.PostFormValue("description")

		s, err := r.db.InsertSample(r.User, taxon, name, description)
		if err == nil {
			r.Success("%s", r.T("sample-created", map[string]interface{}{"Name": s.Name()}))
			r.SeeOther("/sample/%d", s.ID())
			return nil
		}
		r.Danger(err)
	}

	return createSampleTmpl.Execute(w, &createSampleData{
		Route:       r,
		Taxon:       taxon,
		Name:        name,
		Description: description,
	})
}

var deleteSampleTmpl = tmpl(`<h1>Delete Sample &raquo;{{ .Selected.Name }}&laquo;</h1>

	<p>
		<a class="btn btn-secondary" href="sample/{{ .Selected.ID }}">Cancel</a>
	</p>

	<form method="post">
		<input type="submit" class="btn btn-danger" name="delete" value="Delete">
	</form>`)

func deleteSample(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	selected, err := r.db.GetSample(id)
	if err != nil {
		return err
	}

	if err := core.RequireOwnerOrAdmin(r.User, selected.AuthorUserID()); err != nil {
		return err
	}

	if req.PostFormValue("delete") != "" {
		if err := r.db.DeleteSample(r.User, selected); err == nil {
			r.Success("%s", r.T("sample-deleted", map[string]interface{}{"Name": selected.Name()}))
			r.SeeOther("/taxon/%d", selected.TaxonID())
			return nil
		} else if errors.Is(err, core.ErrNotFound) {
			r.SeeOther("/taxa/1")
			return nil
		} else {
			r.Danger(err)
		}
	}

	return deleteSampleTmpl.Execute(w, &sampleData{
		Route:    r,
		Selected: selected,
	})
}
