package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/shelfworks/planogram/pkg/errors"
)

// historyCommand lists saved versions of a planogram.
func (c *CLI) historyCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "List saved versions of a planogram",
		Long: `List saved versions of a planogram, newest first.

With --pick an interactive list is shown and the selected version is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, s, err := c.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			versions, err := repo.History(ctx, args[0])
			if err != nil {
				return err
			}

			model := NewVersionListModel(versions)
			if !pick {
				fmt.Println(versionTable(model.Versions, -1, time.Now()).Render())
				return nil
			}

			final, err := tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run()
			if err != nil {
				return fmt.Errorf("version picker: %w", err)
			}
			selected := final.(VersionListModel).Selected
			if selected == nil {
				return nil
			}
			snap, err := loadFrom(ctx, repo, args[0], selected.Version)
			if err != nil {
				return err
			}
			printSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "pick a version interactively")

	return cmd
}

// restoreCommand saves an earlier version as the new latest version.
func (c *CLI) restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id> <version>",
		Short: "Save an earlier version as the latest version",
		Long: `Save an earlier version as the latest version. History is never rewritten:
restoring version 2 of a planogram at version 5 writes version 6 with the
content of version 2.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "version must be an integer, got %q", args[1]).
					With(errors.DetailVersion, args[1])
			}

			repo, s, err := c.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			old, err := repo.LoadVersion(ctx, args[0], version)
			if err != nil {
				return err
			}
			head, err := repo.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if head.Version == old.Version {
				printInfo("Version %d is already the latest", version)
				return nil
			}

			saved, err := repo.Save(ctx, old, head.Version)
			if err != nil {
				return err
			}
			printSuccess("Restored version %d of %s as version %d", version, StyleHighlight.Render(saved.ID), saved.Version)
			return nil
		},
	}
}
