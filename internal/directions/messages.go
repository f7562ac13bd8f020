package directions

import (
	"golang.org/x/text/language"
)

// Outcome explains an empty search result
type Outcome string

const (
	OutcomeFound             Outcome = "found"
	OutcomeNoAccessibleRoute Outcome = "no_accessible_route"
	OutcomeNoRoutes          Outcome = "no_routes"
	OutcomeNoBusRoute        Outcome = "no_bus_route"
)

var messages = map[language.Base]map[Outcome]string{
	base("pt"): {
		OutcomeNoAccessibleRoute: "Nenhuma rota acessível para cadeira de rodas encontrada.",
		OutcomeNoRoutes:          "Nenhuma rota encontrada.",
		OutcomeNoBusRoute:        "Nenhuma rota de autocarro disponível entre estes pontos.",
	},
	base("en"): {
		OutcomeNoAccessibleRoute: "No wheelchair-accessible route found.",
		OutcomeNoRoutes:          "No routes found.",
		OutcomeNoBusRoute:        "No bus route available between these points.",
	},
	base("es"): {
		OutcomeNoAccessibleRoute: "No se encontró ninguna ruta accesible en silla de ruedas.",
		OutcomeNoRoutes:          "No se encontraron rutas.",
		OutcomeNoBusRoute:        "No hay ninguna ruta de autobús entre estos puntos.",
	},
}

func base(tag string) language.Base {
	b, _ := language.MustParse(tag).Base()
	return b
}

// Message returns the user-facing text for o in lang, falling back to
// Portuguese. It is empty for OutcomeFound.
func (o Outcome) Message(lang string) string {
	if o == OutcomeFound {
		return ""
	}

	catalog := messages[base("pt")]
	if tag, err := language.Parse(lang); err == nil {
		if b, _ := tag.Base(); messages[b] != nil {
			catalog = messages[b]
		}
	}
	return catalog[o]
}
