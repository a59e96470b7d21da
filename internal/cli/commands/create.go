package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create DATABASE",
		Short: "Create an empty database file",
		Long: `Create a new, empty SQLite database.

If the file exists you are asked before it is replaced; --force skips
the question.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			path := args[0]

			overwrite := false
			if _, err := os.Stat(path); err == nil {
				if !force {
					ok, err := confirm(cmd.InOrStdin(), cc.Renderer.Writer(),
						fmt.Sprintf("%s already exists. Overwrite? [y/N] ", path))
					if err != nil {
						return err
					}
					if !ok {
						cc.Renderer.Muted("Aborted")
						return nil
					}
				}
				overwrite = true
			}

			if err := explorer.Create(cmd.Context(), path, overwrite); err != nil {
				return err
			}
			cc.Logger.Debug("created database", "path", path, "overwrite", overwrite)
			cc.Renderer.Success(fmt.Sprintf("Created %s", path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file without asking")

	return cmd
}

// confirm prints prompt and reads a yes/no answer. Anything but y or yes
// is a no.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	_, _ = fmt.Fprint(out, prompt)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
