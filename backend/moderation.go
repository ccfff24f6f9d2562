package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
)

var moderationTmpl = tmpl(`<h1>Moderation</h1>

	<p>
		Recently created records across all users.
	</p>

	<h2>Samples</h2>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>Description</th>
				<th>Created</th>
			</tr>
		</thead>
		<tbody>
			{{ range .RecentSamples }}
				<tr>
					<td>{{ SampleLink . }}</td>
					<td>{{ Excerpt .Description }}</td>
					<td>{{ FormatTs .TsCreated }}</td>
				</tr>
			{{ end }}
		</tbody>
	</table>`)

type moderationData struct {
	*Route
}

func (data *moderationData) RecentSamples() ([]core.DBSample, error) {
	return data.db.GetAllSamples(50, 0) // newest first
}

func moderation(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	if err := r.MustBeModerator(); err != nil {
		return err
	}

	return moderationTmpl.Execute(w, &moderationData{
		Route: r,
	})
}
