package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func root(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {
	r.SeeOther("/taxa/1")
	return nil
}

func setLanguage(w http.ResponseWriter, req *http.Request, r *Route, params httprouter.Params) error {
	if err := r.SetLanguage(params.ByName("code")); err != nil {
		return err
	}
	r.Success("%s", r.T("language-set", nil))
	r.SeeOther("/taxa/1")
	return nil
}
