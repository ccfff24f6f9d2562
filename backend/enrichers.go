package backend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/mkranz/taxograph/core"
)

var enrichersTmpl = tmpl(`<h1>Enrichers</h1>

	<p>
		Enrichers are created with <code>taxograph init -insert-enricher -name</code>.
		Silent enrichers are pruned automatically.
	</p>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>Last seen</th>
			</tr>
		</thead>
		<tbody>
			{{ range .Enrichers }}
				<tr>
					<td>{{ .Name }}</td>
					<td>{{ LastSeen .LastPing }}</td>
				</tr>
			{{ end }}
		</tbody>
	</table>`)

type enrichersData struct {
	*Route
}

func (data *enrichersData) Enrichers() ([]core.DBEnricher, error) {
	return data.db.GetAllEnrichers(1000, 0)
}

func enrichers(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	if err := r.MustBeAdministrator(); err != nil {
		return err
	}

	return enrichersTmpl.Execute(w, &enrichersData{
		Route: r,
	})
}

// enricherPing is the only machine endpoint. Enrichers POST their name and
// token as JSON, no browser session is involved.
func enricherPing(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {

	var body struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil
	}

	switch err := r.db.PingEnricher(body.Name, body.Token); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "unknown enricher", http.StatusNotFound)
	case errors.Is(err, core.ErrUnauthorized):
		http.Error(w, "wrong token", http.StatusForbidden)
	default:
		return err
	}
	return nil
}
