package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/units"
)

// =============================================================================
// Sections
// =============================================================================

// sectionCommand creates the "section" command group.
func (c *CLI) sectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Add or remove fixture sections",
	}

	cmd.AddCommand(c.sectionAddCommand())
	cmd.AddCommand(c.sectionRemoveCommand())

	return cmd
}

func (c *CLI) sectionAddCommand() *cobra.Command {
	var (
		spec editor.SectionSpec
		rows []float64
	)

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Append a section with optional rows",
		Example: `  planogram section add drinks --section-id bay-1 --width 48 --height 72 \
    --header 4 --offset 2 --rows 12,12,14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, h := range rows {
				spec.Rows = append(spec.Rows, fixture.Row{Height: h})
			}
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				sec, err := sess.AddSection(spec)
				if err != nil {
					return err
				}
				printSuccess("Added section %s with %d rows", StyleHighlight.Render(sec.ID), len(sec.Rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&spec.ID, "section-id", "", "section id (default: generated)")
	cmd.Flags().StringVar(&spec.Name, "name", "", "section name")
	cmd.Flags().Float64Var(&spec.Width, "width", 0, "width in inches")
	cmd.Flags().Float64Var(&spec.Height, "height", 0, "height in inches")
	cmd.Flags().Float64Var(&spec.HeaderHeight, "header", 0, "header height in inches")
	cmd.Flags().Float64Var(&spec.RowOffset, "offset", 0, "gap between header and first row in inches")
	cmd.Flags().Float64SliceVar(&rows, "rows", nil, "row heights in inches, top to bottom")

	return cmd
}

func (c *CLI) sectionRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> <section>",
		Short: "Remove a section with all of its rows and components",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				return sess.RemoveSection(args[1])
			})
		},
	}
}

// =============================================================================
// Rows
// =============================================================================

// rowCommand creates the "row" command group.
func (c *CLI) rowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Add, remove or resize section rows",
	}

	cmd.AddCommand(c.rowAddCommand())
	cmd.AddCommand(c.rowRemoveCommand())
	cmd.AddCommand(c.rowResizeCommand())

	return cmd
}

func (c *CLI) rowAddCommand() *cobra.Command {
	var row fixture.Row

	cmd := &cobra.Command{
		Use:   "add <id> <section>",
		Short: "Append a row at the bottom of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				added, err := sess.AddRow(args[1], row)
				if err != nil {
					return err
				}
				printSuccess("Added row %s (%s in)", StyleHighlight.Render(added.ID), formatFloat(added.Height))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&row.ID, "row-id", "", "row id (default: generated)")
	cmd.Flags().Float64Var(&row.Height, "height", 0, "row height in inches")

	return cmd
}

func (c *CLI) rowRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> <section>",
		Short: "Remove the bottom row of a section",
		Long:  "Remove the bottom row of a section. Fails while components still sit on it.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				removed, err := sess.RemoveLastRow(args[1])
				if err != nil {
					return err
				}
				printSuccess("Removed row %s", StyleHighlight.Render(removed.ID))
				return nil
			})
		},
	}
}

func (c *CLI) rowResizeCommand() *cobra.Command {
	var height float64

	cmd := &cobra.Command{
		Use:   "resize <id> <section> <index>",
		Short: "Change the height of a row",
		Long: `Change the height of a row. Components below move with it. The resize is
rejected if a component on the row would no longer fit or the rows would
overflow the section.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex("index", args[2])
			if err != nil {
				return err
			}
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				_, err := sess.ResizeRow(args[1], index, height)
				return err
			})
		},
	}

	cmd.Flags().Float64Var(&height, "height", 0, "new row height in inches")

	return cmd
}

// =============================================================================
// Components
// =============================================================================

func (c *CLI) placeCommand() *cobra.Command {
	var (
		comp fixture.PlacedComponent
		row  int
		x    float64
	)

	cmd := &cobra.Command{
		Use:   "place <id> <section>",
		Short: "Place a product on a row",
		Long: `Place a product on a row at pixel offset --x.

Without dimensions the product is looked up in the catalog, which supplies
its name, brand and size. With --width, --height and --depth the component is
placed as given.`,
		Example: `  planogram place drinks bay-1 --product sku-1001 --facings 3 --row 0 --x 0
  planogram place drinks bay-1 --product promo --width 4 --height 8 --depth 4 --x 120`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.edit(ctx, args[0], func(sess *editor.Session) error {
				var (
					placed fixture.PlacedComponent
					err    error
				)
				if comp.Dimensions == (units.Dimensions{}) {
					placed, err = sess.PlaceProduct(ctx, args[1], comp.ProductID, comp.Facings, row, x)
				} else {
					placed, err = sess.Place(args[1], comp, row, x)
				}
				if err != nil {
					return err
				}
				printSuccess("Placed %s at (%s, %s) px", StyleHighlight.Render(placed.ID), formatFloat(placed.X), formatFloat(placed.Y))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&comp.ID, "component-id", "", "component id (default: generated)")
	cmd.Flags().StringVar(&comp.ProductID, "product", "", "product id")
	cmd.Flags().StringVar(&comp.Name, "name", "", "display name")
	cmd.Flags().StringVar(&comp.Brand, "brand", "", "brand")
	cmd.Flags().Float64Var(&comp.Dimensions.Width, "width", 0, "width of one facing in inches")
	cmd.Flags().Float64Var(&comp.Dimensions.Height, "height", 0, "height in inches")
	cmd.Flags().Float64Var(&comp.Dimensions.Depth, "depth", 0, "depth in inches")
	cmd.Flags().IntVar(&comp.Facings, "facings", 1, "number of side-by-side facings")
	cmd.Flags().IntVar(&row, "row", 0, "row index, 0 is the top row")
	cmd.Flags().Float64Var(&x, "x", 0, "left edge in pixels")
	_ = cmd.MarkFlagRequired("product")

	return cmd
}

func (c *CLI) moveCommand() *cobra.Command {
	var (
		row int
		x   float64
	)

	cmd := &cobra.Command{
		Use:   "move <id> <section> <component>",
		Short: "Move a component to another row or offset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				moved, err := sess.Move(args[1], args[2], row, x)
				if err != nil {
					return err
				}
				printSuccess("Moved %s to row %d at (%s, %s) px", args[2], moved.RowIndex, formatFloat(moved.X), formatFloat(moved.Y))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&row, "row", 0, "target row index")
	cmd.Flags().Float64Var(&x, "x", 0, "target left edge in pixels")

	return cmd
}

func (c *CLI) facingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "facings <id> <section> <component> <count>",
		Short: "Change how many facings of a component are shown",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			facings, err := strconv.Atoi(args[3])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidFacings, "facings must be an integer, got %q", args[3]).
					With(errors.DetailComponent, args[2])
			}
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				_, err := sess.SetFacings(args[1], args[2], facings)
				return err
			})
		},
	}
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> <section> <component>",
		Short: "Remove a placed component",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.edit(cmd.Context(), args[0], func(sess *editor.Session) error {
				_, err := sess.RemoveComponent(args[1], args[2])
				return err
			})
		},
	}
}

func parseIndex(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", field, raw).
			With(errors.DetailField, field)
	}
	return n, nil
}
