package structure

import (
	"fmt"

	"github.com/ppiankov/indxflow/internal/model"
)

// Task is a starter card placed in a new column
type Task struct {
	Title          string   `json:"title"`
	Priority       string   `json:"priority"` // high, medium, low
	EstimatedHours int      `json:"estimatedHours"`
	Tags           []string `json:"tags"`
}

// Column is a board column with its starter tasks
type Column struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// Board is a ready-to-use board for a context type
type Board struct {
	ContextType model.ContextType `json:"contextType"`
	Variant     string            `json:"variant"`
	Columns     []Column          `json:"columns"`
}

// taskTemplate builds starter tasks from a column name
type taskTemplate struct {
	title    string // %s is the column name
	priority string
	hours    int
	tag      string
}

var starterTasks = map[model.ContextType][2]taskTemplate{
	model.ContextClientBased: {
		{"Faire le point avec %s", "high", 2, "suivi"},
		{"Préparer les livrables %s", "medium", 6, "livrable"},
	},
	model.ContextTemporal: {
		{"Planifier %s", "high", 3, "planning"},
		{"Rétrospective %s", "low", 1, "retro"},
	},
	model.ContextPhased: {
		{"Définir les critères de sortie %s", "high", 4, "jalon"},
		{"Valider %s", "medium", 2, "validation"},
	},
	model.ContextVersioned: {
		{"Lister le périmètre %s", "high", 3, "perimetre"},
		{"Notes de version %s", "low", 2, "release"},
	},
	model.ContextProcessBased: {
		{"Traiter les entrées %s", "high", 2, "flux"},
		{"Mesurer la conversion %s", "medium", 1, "kpi"},
	},
	model.ContextResourceBased: {
		{"Plan de charge %s", "high", 2, "capacite"},
		{"Point hebdomadaire %s", "medium", 1, "equipe"},
	},
	model.ContextGeneric: {
		{"Trier %s", "medium", 1, "organisation"},
		{"Revoir %s", "low", 1, "revue"},
	},
}

// NewBoard builds the board of a variant with two starter tasks per column
func NewBoard(ctxType model.ContextType, variant string) (*Board, error) {
	if variant == "" {
		variant = DefaultVariant
	}
	cols, err := Variant(ctxType, variant)
	if err != nil {
		return nil, err
	}
	return BoardFromColumns(ctxType, variant, cols), nil
}

// BoardFromColumns adds starter tasks to already chosen columns
func BoardFromColumns(ctxType model.ContextType, variant string, cols []string) *Board {
	templates, ok := starterTasks[ctxType]
	if !ok {
		templates = starterTasks[model.ContextGeneric]
	}

	board := &Board{
		ContextType: ctxType,
		Variant:     variant,
		Columns:     make([]Column, 0, len(cols)),
	}
	for _, name := range cols {
		col := Column{Name: name}
		for _, tpl := range templates {
			col.Tasks = append(col.Tasks, Task{
				Title:          fmt.Sprintf(tpl.title, name),
				Priority:       tpl.priority,
				EstimatedHours: tpl.hours,
				Tags:           []string{tpl.tag, string(ctxType)},
			})
		}
		board.Columns = append(board.Columns, col)
	}
	return board
}
