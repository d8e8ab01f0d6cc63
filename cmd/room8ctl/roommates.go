package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"room8/internal/cli"
)

func newRoommatesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roommates",
		Short: "List the household roster",
		Args:  cobra.NoArgs,
		RunE: open(func(_ context.Context, a *app, _ []string) error {
			roommates := a.household.Roommates()
			a.println(cli.RenderTitle("ROOMMATES"))
			if len(roommates) == 0 {
				a.println(cli.RenderMuted("No roommates yet. Add one with: room8ctl roommates add NAME"))
				return nil
			}

			rows := make([][]string, 0, len(roommates))
			for _, p := range roommates {
				active := "yes"
				if !p.IsActive {
					active = "no"
				}
				rows = append(rows, []string{
					p.Name,
					p.Email,
					p.Color,
					p.JoinDate.Format(dateLayout),
					active,
					fmt.Sprint(len(a.household.ChoresAssignedTo(p.ID))),
					p.ID,
				})
			}
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Headers:   []string{"Name", "Email", "Color", "Joined", "Active", "Chores", "ID"},
				Rows:      rows,
				LeftAlign: true,
			}))
			return nil
		}),
	}

	var email, color string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a roommate",
		Args:  cobra.ExactArgs(1),
		RunE: open(func(ctx context.Context, a *app, args []string) error {
			p, err := a.household.AddRoommate(ctx, args[0], email, color)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "  Added %s (%s)\n", p.Name, p.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&email, "email", "", "Email address")
	add.Flags().StringVar(&color, "color", "", "Display color")

	cmd.AddCommand(add)
	return cmd
}
