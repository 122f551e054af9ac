package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/indxflow/internal/model"
	"github.com/ppiankov/indxflow/internal/pipeline"
	"github.com/ppiankov/indxflow/internal/structure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	variantName   string
	withTasks     bool
	answersFile   string
	structureJSON bool
)

// structureCmd represents the structure command
var structureCmd = &cobra.Command{
	Use:   "structure <type>",
	Short: "Show the suggested board columns of a context type",
	Long: `Structure prints the four board columns suggested for a context type.

Types: CLIENT_BASED, TEMPORAL, PHASED, VERSIONED, PROCESS_BASED,
RESOURCE_BASED, GENERIC (case-insensitive).

Onboarding answers (YAML) pick a variant and adapt the columns:
  clientType: medical
  clientCount: 4-10
  sprintDuration: 1week

Example:
  indxflow structure temporal
  indxflow structure phased --variant migration --tasks
  indxflow structure client_based --answers answers.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)

	structureCmd.Flags().StringVar(&variantName, "variant", "", "named variant (default, medical, development, migration, ...)")
	structureCmd.Flags().BoolVar(&withTasks, "tasks", false, "include starter tasks for each column")
	structureCmd.Flags().StringVar(&answersFile, "answers", "", "YAML file with onboarding answers")
	structureCmd.Flags().BoolVar(&structureJSON, "json", false, "print as JSON")
}

func runStructure(cmd *cobra.Command, args []string) error {
	ctxType, ok := model.ParseContextType(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", structure.ErrUnknownContextType, args[0])
	}
	renderer := pipeline.NewRenderer(os.Stdout, verbose)

	if answersFile != "" {
		answers, err := readAnswers(answersFile)
		if err != nil {
			return err
		}
		generated, err := structure.Generate(ctxType, answers)
		if err != nil {
			return err
		}
		if withTasks {
			return showBoard(renderer, structure.BoardFromColumns(ctxType, generated.Variant, generated.Columns))
		}
		if structureJSON {
			return renderer.WriteJSON(generated)
		}
		fmt.Printf("%s (%s, %d answers used)\n", ctxType, generated.Variant, generated.AnswersUsed)
		fmt.Printf("  %s\n", strings.Join(generated.Columns, " | "))
		return nil
	}

	board, err := structure.NewBoard(ctxType, variantName)
	if err != nil {
		return err
	}
	if withTasks {
		return showBoard(renderer, board)
	}

	cols := make([]string, len(board.Columns))
	for i, c := range board.Columns {
		cols[i] = c.Name
	}
	if structureJSON {
		return renderer.WriteJSON(cols)
	}
	fmt.Printf("%s (%s)\n", ctxType, board.Variant)
	fmt.Printf("  %s\n", strings.Join(cols, " | "))
	fmt.Printf("\nVariants: %s\n", strings.Join(structure.Variants(ctxType), ", "))
	return nil
}

func showBoard(renderer *pipeline.Renderer, board *structure.Board) error {
	if structureJSON {
		return renderer.WriteJSON(board)
	}
	renderer.RenderBoard(board)
	return nil
}

// readAnswers decodes an onboarding answers file
func readAnswers(path string) (structure.Answers, error) {
	var answers structure.Answers
	data, err := os.ReadFile(path)
	if err != nil {
		return answers, fmt.Errorf("read answers: %w", err)
	}
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return answers, fmt.Errorf("parse answers: %w", err)
	}
	return answers, nil
}
