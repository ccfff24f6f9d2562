// Package locale translates user-facing notification messages.
package locale

import (
	"embed"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var files embed.FS

var bundle *i18n.Bundle

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, name := range []string{"active.en.toml", "active.de.toml"} {
		if _, err := bundle.LoadMessageFileFS(files, name); err != nil {
			panic(err)
		}
	}
}

// Supported returns whether messages exist for the given language.
func Supported(lang string) bool {
	for _, tag := range bundle.LanguageTags() {
		base, _ := tag.Base()
		if base.String() == lang {
			return true
		}
	}
	return false
}

type Localizer struct {
	loc *i18n.Localizer
}

// New creates a Localizer for the given languages, most preferred first.
func New(langs ...string) *Localizer {
	return &Localizer{
		loc: i18n.NewLocalizer(bundle, langs...),
	}
}

// Tr translates a message id. An unknown id is returned as-is, a broken
// translation must not break the request.
func (l *Localizer) Tr(id string, data map[string]interface{}) string {
	s, err := l.loc.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil && s == "" {
		return id // better the message id than nothing
	}
	return s
}
