package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covprobe/pkg/config"
	"github.com/Sumatoshi-tech/covprobe/pkg/covmap"
	"github.com/Sumatoshi-tech/covprobe/pkg/observability"
)

// ErrValidationFailed is returned when a coverage map violates the schema.
var ErrValidationFailed = errors.New("coverage map validation failed")

// ValidateCommand holds configuration for the validate command.
type ValidateCommand struct {
	global *GlobalOptions

	colorize bool
	noColor  bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(global *GlobalOptions) *cobra.Command {
	vc := &ValidateCommand{global: global}

	cobraCmd := &cobra.Command{
		Use:   "validate <map.json|->",
		Short: "Validate a coverage map against the map schema",
		Long: `Validate a coverage map JSON document (one map or an array of maps)
against the coverage map schema.

Examples:
  covprobe validate app.map.json
  covprobe validate - < app.map.json`,
		Args: cobra.ExactArgs(1),
		RunE: vc.Run,
	}

	cobraCmd.Flags().BoolVar(&vc.colorize, "color", false, "force colored output")
	cobraCmd.Flags().BoolVar(&vc.noColor, "no-color", false, "disable colored output")

	return cobraCmd
}

// Run executes the validate command.
func (vc *ValidateCommand) Run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(vc.global.ConfigPath)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, vc.global, cfg, observability.ModeCLI, observability.RunInfo{
		Command:  "validate",
		MapFiles: 1,
	})
	if err != nil {
		return err
	}

	defer sess.close()

	return sess.run(cmd.Context(), "validate", func(_ context.Context) error {
		label := args[0]
		if label == stdinPath {
			label = "stdin"
		}

		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		return vc.validate(cmd.OutOrStdout(), label, raw)
	})
}

func (vc *ValidateCommand) validate(w io.Writer, label string, raw []byte) error {
	green := vc.paint(color.FgGreen)
	red := vc.paint(color.FgRed)
	yellow := vc.paint(color.FgYellow)

	validateErr := covmap.Validate(raw)

	var schemaErr *covmap.SchemaError

	switch {
	case validateErr == nil:
	case errors.As(validateErr, &schemaErr):
		fmt.Fprintf(w, "%s %s\n", red.Sprint("INVALID"), label)

		for _, fe := range schemaErr.Errors {
			fmt.Fprintf(w, "  - %s: %s\n", yellow.Sprint(fe.Field), fe.Description)
		}

		return fmt.Errorf("%w: %s: %d violation(s)", ErrValidationFailed, label, len(schemaErr.Errors))
	default:
		fmt.Fprintf(w, "%s %s\n", red.Sprint("INVALID"), label)

		return fmt.Errorf("%w: %s: %w", ErrValidationFailed, label, validateErr)
	}

	// The schema cannot check that probe ids fit in 64 bits.
	maps, parseErr := covmap.Parse(raw)
	if parseErr != nil {
		fmt.Fprintf(w, "%s %s\n", red.Sprint("INVALID"), label)

		return fmt.Errorf("%w: %s: %w", ErrValidationFailed, label, parseErr)
	}

	if vc.global.Quiet {
		return nil
	}

	probes := 0
	for _, m := range maps {
		probes += m.TotalProbes()
	}

	fmt.Fprintf(w, "%s %s (%d map(s), %d probe(s))\n", green.Sprint("VALID"), label, len(maps), probes)

	return nil
}

func (vc *ValidateCommand) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)

	switch {
	case vc.noColor:
		c.DisableColor()
	case vc.colorize:
		c.EnableColor()
	}

	return c
}
