package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfworks/planogram/internal/config"
	"github.com/shelfworks/planogram/pkg/buildinfo"
	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/export"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/persistence"
	"github.com/shelfworks/planogram/pkg/placement"
	"github.com/shelfworks/planogram/pkg/planogram"
	"github.com/shelfworks/planogram/pkg/units"
)

// initCommand creates the "init" command.
func (c *CLI) initCommand() *cobra.Command {
	var (
		name        string
		fixtureID   string
		fixtureName string
		from        string
		scale       float64
	)

	cmd := &cobra.Command{
		Use:   "init [id]",
		Short: "Create a planogram, optionally from a fixture template",
		Long: `Create a new draft planogram and save it as version 1.

Without an id a random one is generated. With --from, the sections and rows
of a TOML fixture template are added before the first save.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			var id string
			if len(args) == 1 {
				id = args[0]
			}
			if name == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--name is required").With(errors.DetailField, "name")
			}

			var tmpl *config.Template
			if from != "" {
				t, err := config.LoadTemplate(from)
				if err != nil {
					return err
				}
				tmpl = &t
				if fixtureName == "" {
					fixtureName = t.Name
				}
			}

			if fixtureID == "" {
				fixtureID = planogram.NewID()
			}
			f := fixture.New(fixtureID, fixtureName)
			f.Author = c.Config.Author
			p := planogram.New(id, name, f)
			if scale == 0 {
				scale = c.Config.Scale
			}
			p.Scale = units.Scale(scale)
			if err := p.Scale.Validate(); err != nil {
				return err
			}

			repo, s, err := c.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			opts, err := c.sessionOptions()
			if err != nil {
				return err
			}

			sess, err := editor.NewRegistry(repo, opts...).Create(ctx, p)
			if err != nil {
				return err
			}
			if tmpl != nil {
				for _, spec := range tmpl.SectionSpecs() {
					if _, err := sess.AddSection(spec); err != nil {
						return err
					}
				}
			}
			if err := c.save(ctx, sess); err != nil {
				return err
			}

			prog.done("Created planogram " + p.ID)
			if tmpl == nil {
				printNextStep("Add a section", "planogram section add "+p.ID+" --width 48 --height 72 --rows 12,12,12")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "planogram name (required)")
	cmd.Flags().StringVar(&fixtureID, "fixture-id", "", "fixture id (default: generated)")
	cmd.Flags().StringVar(&fixtureName, "fixture-name", "", "fixture name (default: template name)")
	cmd.Flags().StringVar(&from, "from", "", "TOML fixture template")
	cmd.Flags().Float64Var(&scale, "scale", 0, "pixels per inch (default from config)")

	return cmd
}

// showCommand creates the "show" command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		version int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a planogram's fixture tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := planogram.Marshal(snap)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "show a specific version (default: latest)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")

	return cmd
}

// checkCommand creates the "check" command.
func (c *CLI) checkCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "check [id]",
		Short: "Validate a stored planogram or a snapshot file",
		Long: `Validate a planogram's layout: every component fits its row, stays inside
its section and overlaps no neighbour, and the rows fit the section height.

Pass an id to check the latest stored version, or --file to check a JSON
snapshot before importing it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   *planogram.Planogram
				err error
			)
			switch {
			case path != "":
				p, err = readSnapshotFile(path)
			case len(args) == 1:
				var snap planogram.Snapshot
				if snap, err = c.loadSnapshot(cmd.Context(), args[0], 0); err == nil {
					p, err = planogram.Deserialize(snap)
				}
			default:
				return fmt.Errorf("pass a planogram id or --file")
			}
			if err != nil {
				return err
			}

			if problems := placement.New(p.Scale).AuditFixture(p.Fixture); len(problems) > 0 {
				for _, problem := range problems {
					fmt.Println(FormatError(problem))
				}
				return fmt.Errorf("%d layout problem(s)", len(problems))
			}
			printSuccess("Layout valid: %d sections, %d components", len(p.Fixture.Sections), p.Fixture.ComponentCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "JSON snapshot file to check")

	return cmd
}

// statusCommand creates the "status" command.
func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <draft|active|archived>",
		Short:     "Move a planogram through its lifecycle",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(planogram.StatusDraft), string(planogram.StatusActive), string(planogram.StatusArchived)},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := planogram.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if status == planogram.StatusArchived {
				printWarning("Archived planograms can no longer be edited")
			}
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				return sess.SetStatus(status)
			})
		},
	}
}

// assignCommand creates the "assign" command.
func (c *CLI) assignCommand() *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "assign <id> [store...]",
		Short: "Set the stores a planogram applies to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores := args[1:]
			if len(stores) == 0 && !clearAll {
				return fmt.Errorf("pass at least one store id, or --clear")
			}
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				return sess.AssignStores(stores)
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove all store assignments")

	return cmd
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format   string
		output   string
		version  int
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a planogram as JSON or a hierarchy diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := c.loadSnapshot(ctx, args[0], version)
			if err != nil {
				return err
			}

			var data []byte
			switch strings.ToLower(format) {
			case "json":
				data, err = planogram.Marshal(snap)
			case "dot":
				data = []byte(export.ToDOT(snap, export.Options{Detailed: detailed}))
			case "svg":
				data, err = export.RenderSVG(ctx, export.ToDOT(snap, export.Options{Detailed: detailed}))
			default:
				return fmt.Errorf("unknown format %q (want json, dot or svg)", format)
			}
			if err != nil {
				return err
			}

			if output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Exported %s version %d", snap.ID, snap.Version)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&version, "version", 0, "export a specific version (default: latest)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include geometry in diagram labels")

	return cmd
}

// versionCommand creates the "version" command.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// loadSnapshot reads version of id, or the latest version when version is 0.
func (c *CLI) loadSnapshot(ctx context.Context, id string, version int) (planogram.Snapshot, error) {
	repo, s, err := c.openRepository(ctx)
	if err != nil {
		return planogram.Snapshot{}, err
	}
	defer s.Close()
	return loadFrom(ctx, repo, id, version)
}

func loadFrom(ctx context.Context, repo *persistence.Repository, id string, version int) (planogram.Snapshot, error) {
	if version == 0 {
		return repo.Load(ctx, id)
	}
	return repo.LoadVersion(ctx, id, version)
}

func readSnapshotFile(path string) (*planogram.Planogram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return planogram.Decode(data)
}

func printSnapshot(snap planogram.Snapshot) {
	fmt.Println(StyleTitle.Render(snap.Name) + " " + StyleDim.Render(snap.ID+" v"+strconv.Itoa(snap.Version)))
	fixtureName := snap.FixtureName
	if fixtureName == "" {
		fixtureName = snap.FixtureID
	}
	printKeyValue("Fixture", fixtureName)
	if snap.Author != "" {
		printKeyValue("Author", snap.Author)
	}
	stores := "—"
	if len(snap.StoreAssignments) > 0 {
		stores = strings.Join(snap.StoreAssignments, ", ")
	}
	printKeyValue("Stores", stores)
	printKeyValue("Scale", formatFloat(snap.Scale)+" px/in")
	printLayoutStats(snap)

	for _, sec := range snap.Sections {
		printNewline()
		name := sec.Name
		if name == "" {
			name = sec.ID
		}
		fmt.Println(StyleHighlight.Render(name) + " " + StyleDim.Render(fmt.Sprintf("%s × %s in, header %s in, offset %s in",
			formatFloat(sec.Width), formatFloat(sec.Height), formatFloat(sec.HeaderHeight), formatFloat(sec.RowOffset))))
		if len(sec.Rows) == 0 {
			printDetail("no rows")
			continue
		}
		fmt.Println(renderSection(sec))
	}
}
