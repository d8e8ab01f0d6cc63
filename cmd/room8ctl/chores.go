package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"room8/internal/cli"
	"room8/internal/core"
	"room8/internal/schedule"
)

const dateLayout = "2006-01-02"

func newChoresCmd(open opener) *cobra.Command {
	var (
		overdue  bool
		dueToday bool
		assignee string
	)
	cmd := &cobra.Command{
		Use:   "chores",
		Short: "List chores with their next due date",
		Args:  cobra.NoArgs,
		RunE: open(func(_ context.Context, a *app, _ []string) error {
			h := a.household
			var chores []core.Chore
			title := "CHORES"
			switch {
			case overdue:
				chores, title = h.OverdueChores(), "OVERDUE CHORES"
			case dueToday:
				chores, title = h.DueTodayChores(), "DUE TODAY"
			case assignee != "":
				chores, title = h.ChoresAssignedTo(assignee), "CHORES FOR "+a.roommateName(assignee)
			default:
				chores = h.Chores()
			}
			a.println(cli.RenderTitle(title))
			a.printChores(chores)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&overdue, "overdue", false, "Only overdue chores")
	cmd.Flags().BoolVar(&dueToday, "due-today", false, "Only chores due today")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Only chores assigned to this roommate id")
	cmd.MarkFlagsMutuallyExclusive("overdue", "due-today", "assignee")
	return cmd
}

func (a *app) printChores(chores []core.Chore) {
	if len(chores) == 0 {
		a.println(cli.RenderMuted("No chores."))
		return
	}

	sched := a.household.Scheduler()
	now := a.household.Now()
	rows := make([][]string, 0, len(chores))
	for _, c := range chores {
		rows = append(rows, []string{
			c.Name,
			string(c.Frequency),
			c.Priority.Label(),
			a.roommateName(c.AssignedTo),
			cli.FormatMinutes(c.EstimatedMinutes),
			nextDue(sched, c),
			status(sched, c, now),
			c.ID,
		})
	}
	fmt.Fprint(a.out, cli.RenderTable(cli.Table{
		Headers:   []string{"Chore", "Frequency", "Priority", "Assignee", "Time", "Next due", "Status", "ID"},
		Rows:      rows,
		LeftAlign: true,
	}))
}

func nextDue(sched *schedule.Scheduler, c core.Chore) string {
	next, ok := sched.NextDue(c)
	if !ok {
		return "as needed"
	}
	return next.In(sched.Location()).Format(dateLayout)
}

func status(sched *schedule.Scheduler, c core.Chore, now time.Time) string {
	switch {
	case sched.IsOverdue(c, now):
		return "overdue"
	case sched.IsDueToday(c, now):
		return "due today"
	default:
		return ""
	}
}

func newCompleteCmd(open opener) *cobra.Command {
	var by, notes string
	cmd := &cobra.Command{
		Use:   "complete CHORE_ID",
		Short: "Record that a roommate completed a chore",
		Args:  cobra.ExactArgs(1),
		RunE: open(func(ctx context.Context, a *app, args []string) error {
			if by == "" {
				return errors.New("--by is required")
			}
			c, completion, err := a.household.CompleteChore(ctx, args[0], by, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "  %s completed by %s at %s\n",
				c.Name, a.roommateName(completion.CompletedBy),
				completion.CompletedDate.In(a.household.Scheduler().Location()).Format("2006-01-02 15:04"))
			a.println("  Next due: " + nextDue(a.household.Scheduler(), c))
			return nil
		}),
	}
	cmd.Flags().StringVar(&by, "by", "", "Roommate id of whoever did the chore")
	cmd.Flags().StringVar(&notes, "notes", "", "Optional notes")
	return cmd
}

func newTimelineCmd(open opener) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Chores occurring today and on the following days",
		Args:  cobra.NoArgs,
		RunE: open(func(_ context.Context, a *app, _ []string) error {
			if days < 1 || days > 366 {
				return fmt.Errorf("--days must be between 1 and 366, got %d", days)
			}
			a.println(cli.RenderTitle(fmt.Sprintf("TIMELINE  Next %dd", days)))

			rows := make([][]string, 0, days+1)
			for _, d := range a.household.Timeline(days) {
				names := make([]string, 0, len(d.Chores))
				for _, c := range d.Chores {
					names = append(names, c.Name)
				}
				cell := strings.Join(names, ", ")
				if cell == "" {
					cell = "-"
				}
				rows = append(rows, []string{d.Date.Format("Mon 2006-01-02"), cell})
			}
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Headers:   []string{"Day", "Chores"},
				Rows:      rows,
				LeftAlign: true,
			}))
			return nil
		}),
	}
	cmd.Flags().IntVarP(&days, "days", "n", schedule.DefaultTimelineDays, "Days after today")
	return cmd
}

func newScheduleCmd(open opener) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Chores occurring on one date",
		Args:  cobra.NoArgs,
		RunE: open(func(_ context.Context, a *app, _ []string) error {
			loc := a.household.Scheduler().Location()
			day := a.household.Now().In(loc)
			if date != "" {
				var err error
				if day, err = time.ParseInLocation(dateLayout, date, loc); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			a.println(cli.RenderTitle("SCHEDULE  " + day.Format("Mon 2006-01-02")))
			a.printChores(a.household.ChoresOn(day))
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	return cmd
}
