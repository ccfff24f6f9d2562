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

const usersPerPage = 50

var usersTmpl = tmpl(`<h1>Users</h1>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>Administrator</th>
				<th>Moderator</th>
			</tr>
		</thead>
		<tbody>
			{{ range .Users }}
				<tr>
					<td>{{ UserLink . }}</td>
					<td>{{ if .IsAdministrator }}&#10003;{{ end }}</td>
					<td>{{ if .IsModerator }}&#10003;{{ end }}</td>
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

type usersData struct {
	*Route
	Page  int
	Users []core.DBUser
}

func (data *usersData) PageLinks() ([]template.HTML, error) {

	count, err := data.db.CountUsers()
	if err != nil {
		return nil, err
	}

	numPages := (count + usersPerPage - 1) / usersPerPage

	return util.PageLinks(
		data.Page,
		numPages,
		func(page int, name string) string {
			return fmt.Sprintf(`<li class="page-item"><a class="page-link" href="users/%d">%s</a></li>`, page, name)
		},
		func(page int, name string) string {
			return fmt.Sprintf(`<li class="page-item active"><span class="page-link">%s</span></li>`, name)
		},
	), nil
}

func users(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	if err := r.MustBeAdministrator(); err != nil {
		return err
	}

	page, err := strconv.Atoi(params.ByName("page"))
	if err != nil || page < 1 {
		page = 1
	}

	all, err := r.db.GetAllUsers(usersPerPage, (page-1)*usersPerPage)
	if err != nil {
		return err
	}

	return usersTmpl.Execute(w, &usersData{
		Route: r,
		Page:  page,
		Users: all,
	})
}
