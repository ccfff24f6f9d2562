package backend

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
	"github.com/mkranz/taxograph/util"
)

const taxaPerPage = 20

var taxaTmpl = tmpl(`<h1>Taxa</h1>

	{{ if .LoggedIn }}
		<p>
			<a class="btn btn-primary" href="create-taxon">Create taxon</a>
		</p>
	{{ end }}

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>Description</th>
				<th>Created</th>
			</tr>
		</thead>
		<tbody>
			{{ range .Taxa }}
				<tr>
					<td>{{ TaxonLink . }}</td>
					<td>{{ Excerpt .Description }}</td>
					<td>{{ FormatTs .TsCreated }}</td>
				</tr>
			{{ end }}
		</tbody>
	</table>

	<nav>
		<ul class="pagination">
			{{ range .PageLinks }}
				{{ . }}
			{{ end }}
		</ul>
	</nav>`)

type taxaData struct {
	*Route
	Page int
	Taxa []core.DBTaxon
}

func (data *taxaData) PageLinks() ([]template.HTML, error) {

	count, err := data.db.CountTaxa()
	if err != nil {
		return nil, err
	}

	numPages := (count + taxaPerPage - 1) / taxaPerPage

	return util.PageLinks(
		data.Page,
		numPages,
		func(page int, name string) string {
			return fmt.Sprintf(`<li class="page-item"><a class="page-link" href="taxa/%d">%s</a></li>`, page, name)
		},
		func(page int, name string) string {
			return fmt.Sprintf(`<li class="page-item active"><span class="page-link">%s</span></li>`, name)
		},
	), nil
}

func taxa(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	page, err := strconv.Atoi(params.ByName("page"))
	if err != nil || page < 1 {
		page = 1
	}

	taxa, err := r.db.GetAllTaxa(taxaPerPage, (page-1)*taxaPerPage)
	if err != nil {
		return err
	}

	return taxaTmpl.Execute(w, &taxaData{
		Route: r,
		Page:  page,
		Taxa:  taxa,
	})
}
