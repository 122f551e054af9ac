// Package structure suggests project board columns for a context type.
package structure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/indxflow/internal/model"
)

// DefaultVariant names the variant used when answers select nothing else
const DefaultVariant = "default"

// ErrUnknownContextType is returned for a tag outside the seven context types
var ErrUnknownContextType = errors.New("unknown context type")

// freeResources pads short skill lists
const freeResources = "Ressources Libres"

// variants maps each context type to its named column sets
var variants = map[model.ContextType]map[string][]string{
	model.ContextClientBased: {
		DefaultVariant: {"Client A", "Client B", "Client C", "Prospects"},
		"medical":      {"Patients Urgents", "Rendez-vous", "Suivi", "Archives"},
		"consulting":   {"Client Principal", "Projet Secondaire", "Prospection", "R&D"},
	},
	model.ContextTemporal: {
		DefaultVariant: {"Sprint 1", "Sprint 2", "Sprint 3", "Backlog"},
		"marketing":    {"Q1 Campagne", "Q2 Campagne", "Q3 Campagne", "Q4 Campagne"},
		"development":  {"Sprint Actuel", "Sprint Suivant", "Bugs", "Features"},
	},
	model.ContextPhased: {
		DefaultVariant: {"Conception", "Réalisation", "Tests", "Déploiement"},
		"construction": {"Études", "Fondations", "Gros Œuvre", "Finitions"},
		"migration":    {"Analyse", "Préparation", "Migration", "Validation"},
	},
	model.ContextVersioned: {
		DefaultVariant: {"v1.0.0", "v1.1.0", "v2.0.0", "Backlog"},
		"software":     {"Stable", "Beta", "Alpha", "Ideas"},
		"design":       {"V1 Design", "V2 Iteration", "V3 Final", "Archive"},
	},
	model.ContextProcessBased: {
		DefaultVariant: {"Lead", "Qualification", "Proposition", "Signature"},
		"sales":        {"Prospection", "Contact", "Négociation", "Closing"},
		"recruitment":  {"Candidatures", "Entretiens", "Tests", "Décision"},
	},
	model.ContextResourceBased: {
		DefaultVariant: {"Jean (Designer)", "Marie (Dev)", "Paul (PM)", freeResources},
		"agency":       {"Créatifs", "Techniques", "Commerciaux", "Support"},
		"consulting":   {"Consultants Senior", "Consultants Junior", "Expertise", "Formation"},
	},
	model.ContextGeneric: {
		DefaultVariant: {"À faire", "En cours", "En attente", "Terminé"},
	},
}

// Default returns the default four columns of ctxType, GENERIC's for unknown types
func Default(ctxType model.ContextType) []string {
	set, ok := variants[ctxType]
	if !ok {
		set = variants[model.ContextGeneric]
	}
	return clone(set[DefaultVariant])
}

// Variant returns the named column set of ctxType, falling back to its default
func Variant(ctxType model.ContextType, name string) ([]string, error) {
	set, ok := variants[ctxType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContextType, ctxType)
	}
	if cols, ok := set[name]; ok {
		return clone(cols), nil
	}
	return clone(set[DefaultVariant]), nil
}

// Variants lists the variant names of ctxType, default first
func Variants(ctxType model.ContextType) []string {
	set := variants[ctxType]
	names := make([]string, 0, len(set))
	for name := range set {
		if name != DefaultVariant {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(set) > 0 {
		names = append([]string{DefaultVariant}, names...)
	}
	return names
}

// Answers are the optional onboarding answers refining a structure.
// ClientCount is "1-3", "4-10" or "25+"; SprintDuration "1week", "2weeks"
// or "quarterly"; PhaseCount "3", "4-5" or "6+"; VersioningScheme "semver",
// "simple" or "date". TeamSize is informational only.
type Answers struct {
	ClientType       string   `json:"clientType,omitempty" yaml:"clientType"`
	Methodology      string   `json:"methodology,omitempty" yaml:"methodology"`
	ProjectType      string   `json:"projectType,omitempty" yaml:"projectType"`
	ProcessType      string   `json:"processType,omitempty" yaml:"processType"`
	OrganizationType string   `json:"organizationType,omitempty" yaml:"organizationType"`
	ClientCount      string   `json:"clientCount,omitempty" yaml:"clientCount"`
	TeamSize         string   `json:"teamSize,omitempty" yaml:"teamSize"`
	SprintDuration   string   `json:"sprintDuration,omitempty" yaml:"sprintDuration"`
	PhaseCount       string   `json:"phaseCount,omitempty" yaml:"phaseCount"`
	VersioningScheme string   `json:"versioningScheme,omitempty" yaml:"versioningScheme"`
	ProcessSteps     int      `json:"processSteps,omitempty" yaml:"processSteps"`
	SkillCategories  []string `json:"skillCategories,omitempty" yaml:"skillCategories"`
}

// Count returns how many answers are set
func (a Answers) Count() int {
	n := 0
	for _, s := range []string{a.ClientType, a.Methodology, a.ProjectType, a.ProcessType,
		a.OrganizationType, a.ClientCount, a.TeamSize, a.SprintDuration, a.PhaseCount, a.VersioningScheme} {
		if s != "" {
			n++
		}
	}
	if a.ProcessSteps > 0 {
		n++
	}
	if len(a.SkillCategories) > 0 {
		n++
	}
	return n
}

// Customizations summarizes which answers shaped a structure
type Customizations struct {
	ClientScale       string `json:"clientScale,omitempty"`
	TeamSize          string `json:"teamSize,omitempty"`
	CycleDuration     string `json:"cycleDuration,omitempty"`
	ProcessComplexity string `json:"processComplexity,omitempty"`
	SkillDiversity    int    `json:"skillDiversity,omitempty"`
}

// Generated is a structure built from answers
type Generated struct {
	ContextType    model.ContextType `json:"contextType"`
	Variant        string            `json:"variant"`
	Columns        []string          `json:"structure"`
	AnswersUsed    int               `json:"answersUsed"`
	Customizations Customizations    `json:"customizations"`
}

// Generate picks a variant from the answers and customizes its columns
func Generate(ctxType model.ContextType, answers Answers) (*Generated, error) {
	return generateAt(ctxType, answers, time.Now())
}

func generateAt(ctxType model.ContextType, answers Answers, now time.Time) (*Generated, error) {
	if !ctxType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContextType, ctxType)
	}

	variant := selectVariant(answers)
	base, err := Variant(ctxType, variant)
	if err != nil {
		return nil, err
	}

	return &Generated{
		ContextType:    ctxType,
		Variant:        variant,
		Columns:        customize(base, ctxType, answers, now),
		AnswersUsed:    answers.Count(),
		Customizations: summarize(answers),
	}, nil
}

// selectVariant applies the answer precedence: client type, methodology,
// project type, process type, organization type
func selectVariant(a Answers) string {
	switch {
	case a.ClientType != "":
		return a.ClientType
	case a.Methodology != "":
		if a.Methodology == "scrum" {
			return "development"
		}
		return DefaultVariant
	case a.ProjectType != "":
		return a.ProjectType
	case a.ProcessType != "":
		return a.ProcessType
	case a.OrganizationType != "":
		return a.OrganizationType
	}
	return DefaultVariant
}

func customize(base []string, ctxType model.ContextType, a Answers, now time.Time) []string {
	switch ctxType {
	case model.ContextClientBased:
		switch a.ClientCount {
		case "1-3":
			return []string{"Client Principal", "Client Secondaire", "Prospects", "Archive"}
		case "25+":
			return []string{"Clients VIP", "Clients Actifs", "Nouveaux Clients", "Leads"}
		}

	case model.ContextTemporal:
		switch a.SprintDuration {
		case "1week":
			return []string{"Semaine Actuelle", "Semaine Suivante", "Backlog", "Terminé"}
		case "quarterly":
			return []string{"Q1", "Q2", "Q3", "Q4"}
		}

	case model.ContextPhased:
		switch a.PhaseCount {
		case "3":
			return []string{"Phase 1", "Phase 2", "Phase 3", "Terminé"}
		case "6+":
			return []string{"Étude", "Conception", "Développement", "Test", "Déploiement", "Maintenance"}
		}

	case model.ContextVersioned:
		switch a.VersioningScheme {
		case "simple":
			return []string{"Version 1", "Version 2", "Version 3", "Idées"}
		case "date":
			return []string{now.Format("2006-01"), "Mois suivant", "Planifié", "Archive"}
		}

	case model.ContextProcessBased:
		if a.ProcessSteps > 4 {
			return []string{"Étape 1", "Étape 2", "Étape 3", "Validation", "Finalisé"}
		}

	case model.ContextResourceBased:
		if len(a.SkillCategories) > 0 {
			cols := make([]string, 0, 4)
			for _, skill := range a.SkillCategories {
				if len(cols) == 4 {
					break
				}
				cols = append(cols, capitalize(skill))
			}
			for len(cols) < 4 {
				cols = append(cols, freeResources)
			}
			return cols
		}
	}
	return base
}

func summarize(a Answers) Customizations {
	c := Customizations{
		ClientScale:    a.ClientCount,
		TeamSize:       a.TeamSize,
		CycleDuration:  a.SprintDuration,
		SkillDiversity: len(a.SkillCategories),
	}
	if a.ProcessSteps > 0 {
		c.ProcessComplexity = "simple"
		if a.ProcessSteps > 4 {
			c.ProcessComplexity = "complex"
		}
	}
	return c
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func clone(cols []string) []string {
	return append([]string(nil), cols...)
}

// Names joins columns for display
func Names(cols []string) string {
	return strings.Join(cols, " | ")
}
