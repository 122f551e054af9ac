package keywords

import "github.com/ppiankov/indxflow/internal/model"

// DefaultSet returns the embedded keyword set used when no source is
// configured or the configured source is unavailable.
func DefaultSet() Set {
	return Set{
		model.ContextClientBased: {Keywords: []Entry{
			{Term: "client", Weight: 5.0, Variants: []string{"clients", "clientèle"}},
			{Term: "compte", Weight: 4.0, Variants: []string{"comptes", "portfolio"}},
			{Term: "patient", Weight: 4.5, Variants: []string{"patients", "patientèle"}},
			{Term: "service", Weight: 3.5, Variants: []string{"services", "prestation"}},
			{Term: "consultant", Weight: 4.0, Variants: []string{"consulting", "conseil"}},
		}},
		model.ContextTemporal: {Keywords: []Entry{
			{Term: "sprint", Weight: 4.5, Variants: []string{"sprints", "scrum"}},
			{Term: "cycle", Weight: 4.0, Variants: []string{"cycles", "cyclique"}},
			{Term: "planning", Weight: 3.5, Variants: []string{"planification", "agenda"}},
			{Term: "agile", Weight: 4.5, Variants: []string{"agilité", "méthodologie"}},
			{Term: "itération", Weight: 4.2, Variants: []string{"itératif", "boucle"}},
		}},
		model.ContextPhased: {Keywords: []Entry{
			{Term: "phase", Weight: 4.5, Variants: []string{"phases", "étape"}},
			{Term: "étape", Weight: 4.2, Variants: []string{"étapes", "stade"}},
			{Term: "migration", Weight: 4.0, Variants: []string{"migrer", "transition"}},
			{Term: "construction", Weight: 3.8, Variants: []string{"btp", "chantier"}},
			{Term: "conception", Weight: 3.5, Variants: []string{"design", "création"}},
		}},
		model.ContextVersioned: {Keywords: []Entry{
			{Term: "version", Weight: 4.8, Variants: []string{"versions", "v1", "v2"}},
			{Term: "release", Weight: 4.5, Variants: []string{"releases", "livraison"}},
			{Term: "itération", Weight: 4.0, Variants: []string{"itératif", "répétition"}},
			{Term: "amélioration", Weight: 3.5, Variants: []string{"améliorer", "optimisation"}},
			{Term: "évolution", Weight: 3.8, Variants: []string{"évoluer", "progression"}},
		}},
		model.ContextProcessBased: {Keywords: []Entry{
			{Term: "processus", Weight: 4.5, Variants: []string{"process", "procédure"}},
			{Term: "workflow", Weight: 4.2, Variants: []string{"flux", "étapes"}},
			{Term: "procédure", Weight: 4.0, Variants: []string{"protocole", "méthode"}},
			{Term: "qualification", Weight: 3.8, Variants: []string{"qualifier", "validation"}},
			{Term: "vente", Weight: 3.5, Variants: []string{"commercial", "sales"}},
		}},
		model.ContextResourceBased: {Keywords: []Entry{
			{Term: "équipe", Weight: 4.5, Variants: []string{"équipes", "team"}},
			{Term: "ressource", Weight: 4.2, Variants: []string{"ressources", "rh"}},
			{Term: "allocation", Weight: 4.0, Variants: []string{"allouer", "répartition"}},
			{Term: "planning", Weight: 3.5, Variants: []string{"planification", "agenda"}},
			{Term: "agence", Weight: 3.8, Variants: []string{"studio", "société"}},
		}},
	}
}
