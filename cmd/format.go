package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
)

// streamer is the part of api.Gateway the format command needs.
type streamer interface {
	GetStreamingResponse(ctx context.Context, messages []history.Message, model string) (string, error)
}

func newFormatCmd(app *App) *cobra.Command {
	var outputDir string

	formatCmd := &cobra.Command{
		Use:   "format <input> <output>",
		Short: "Reformat a saved transcript into readable markdown",
		Long: `Reads a transcript (for example a file written by /save) and asks the
format model to rewrite it as readable markdown. Nothing is written when the
model gives no response.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return app.fail(err)
			}
			models := config.NewModelSelection(app.cfg.FormatModel, "")
			gateway, err := app.newGateway(models, display.NewProgress("Formatting..."))
			if err != nil {
				return app.fail(err)
			}

			out := outputPath(args[1], outputDir)
			if err := formatTranscript(cmd.Context(), gateway, models.Default(), transcriptFS(), args[0], out); err != nil {
				return app.fail(err)
			}
			display.ShowSuccess(fmt.Sprintf("Formatted transcript written to %s", out))
			return nil
		},
	}
	formatCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to write the output file into")

	return formatCmd
}

// outputPath places a relative output name under dir when dir is set.
func outputPath(name, dir string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// transcriptFS reads saved transcripts without the size cap used by /add;
// a transcript holding base64 images easily exceeds it.
func transcriptFS() files.Accessor {
	return &files.FS{}
}

// formatTranscript sends the transcript at in to model and writes the
// reply to out. The output file is only touched after a reply arrived.
func formatTranscript(ctx context.Context, s streamer, model string, fs files.Accessor, in, out string) error {
	transcript, err := fs.Read(in)
	if err != nil {
		return err
	}

	messages := []history.Message{
		history.NewText(history.RoleSystem, constants.FormatSystemMessage),
		history.NewText(history.RoleUser, fmt.Sprintf(constants.FormatPrompt, transcript)),
	}
	reply, err := s.GetStreamingResponse(ctx, messages, model)
	if err != nil {
		return err
	}
	return fs.Write(out, reply)
}
