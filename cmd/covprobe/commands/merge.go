package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covprobe/pkg/config"
	"github.com/Sumatoshi-tech/covprobe/pkg/observability"
	"github.com/Sumatoshi-tech/covprobe/pkg/persist"
)

// ErrNoOutput is returned when merge is run without --out.
var ErrNoOutput = errors.New("no output file given, use --out")

// MergeCommand holds configuration for the merge command.
type MergeCommand struct {
	global *GlobalOptions

	outPath string
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(global *GlobalOptions) *cobra.Command {
	mc := &MergeCommand{global: global}

	cobraCmd := &cobra.Command{
		Use:   "merge --out <file> <data>...",
		Short: "Merge coverage data files into one",
		Long: `Merge coverage data files by summing hit counts per probe.

The output codec follows the --out extension (.json, .gob, .json.lz4,
.gob.lz4). Without a known extension the configured data.codec is used
and its extension appended.`,
		Args: cobra.MinimumNArgs(1),
		RunE: mc.Run,
	}

	cobraCmd.Flags().StringVarP(&mc.outPath, "out", "o", "", "merged output file")

	return cobraCmd
}

// Run executes the merge command.
func (mc *MergeCommand) Run(cmd *cobra.Command, args []string) error {
	if mc.outPath == "" {
		return ErrNoOutput
	}

	cfg, err := config.LoadConfig(mc.global.ConfigPath)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, mc.global, cfg, observability.ModeCLI, observability.RunInfo{
		Command:   "merge",
		DataFiles: len(args),
	})
	if err != nil {
		return err
	}

	defer sess.close()

	return sess.run(cmd.Context(), "merge", func(ctx context.Context) error {
		merged, err := persist.LoadAll(args)
		if err != nil {
			return err
		}

		path, codec, err := mc.resolveOutput(sess)
		if err != nil {
			return err
		}

		saveErr := persist.SaveData(path, codec, merged)
		if saveErr != nil {
			return saveErr
		}

		sess.logger.DebugContext(ctx, "coverage data merged",
			"inputs", len(args), "probes_hit", merged.ProbesHit(), "out", path)

		if !mc.global.Quiet {
			mc.printSummary(cmd, path, len(args), merged.ProbesHit())
		}

		return nil
	})
}

// resolveOutput picks the codec from the output extension, falling back to
// the configured codec.
func (mc *MergeCommand) resolveOutput(sess *session) (string, persist.Codec, error) {
	codec, err := persist.CodecForPath(mc.outPath)
	if err == nil {
		return mc.outPath, codec, nil
	}

	if !errors.Is(err, persist.ErrUnknownExtension) {
		return "", nil, err
	}

	codec, err = persist.CodecFor(sess.cfg.Data.Codec)
	if err != nil {
		return "", nil, err
	}

	return mc.outPath + codec.Extension(), codec, nil
}

func (mc *MergeCommand) printSummary(cmd *cobra.Command, path string, inputs, probesHit int) {
	size := "unknown size"

	info, statErr := os.Stat(path)
	if statErr == nil && info.Size() >= 0 {
		size = humanize.Bytes(uint64(info.Size()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "merged %d files into %s: %s probes hit, %s\n",
		inputs, path, humanize.Comma(int64(probesHit)), size)
}
