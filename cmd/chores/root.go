package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"familychores/internal/config"
	"familychores/pkg/domain"

	"github.com/spf13/cobra"
)

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "chores",
		Short: "Household chore tracker",
		Long: `chores tracks family members, recurring chore templates and the chores
assigned to each member.

Every change is applied optimistically and rolled back when the configured
backend (rest, local, memory, sqlite or postgres) rejects it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.mode, "mode", "", "Storage mode (rest, local, memory, sqlite, postgres)")
	pf.BoolVar(&flags.trace, "trace", false, "Write operation spans as JSON lines to stderr")
	pf.StringVar(&flags.metricsOut, "metrics-out", "", "Write operation metrics in Prometheus text format to this file")

	cmd.AddCommand(
		membersCmd(flags),
		templatesCmd(flags),
		choresCmd(flags),
		todayCmd(flags),
		resetCmd(flags),
		configCmd(flags),
		serveCmd(flags),
	)
	return cmd
}

func membersCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "members", Short: "List and manage family members"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List members and their chores",
			Args:  cobra.NoArgs,
			RunE: withService(flags, func(_ context.Context, a *app, _ []string) error {
				renderMembers(a.out, a.svc.Store().ListMembers())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a family member",
			Args:  cobra.ExactArgs(1),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				name := strings.TrimSpace(args[0])
				if err := domain.ValidateMemberName(name); err != nil {
					return err
				}
				member, err := a.svc.AddFamilyMember(ctx, name)
				if err != nil {
					return a.failure(err)
				}
				fmt.Fprintf(a.out, "added %s (%s)\n", member.Name, member.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a member and all of their chores",
			Args:  cobra.ExactArgs(1),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				if err := a.svc.DeleteFamilyMember(ctx, args[0]); err != nil {
					return a.failure(err)
				}
				fmt.Fprintf(a.out, "deleted member %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}

func templatesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "templates", Short: "List and manage chore templates"}

	var (
		description string
		recurrence  string
		days        []string
	)
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a chore template",
		Args:  cobra.ExactArgs(1),
		RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
			tpl, err := buildTemplate(args[0], description, recurrence, days)
			if err != nil {
				return err
			}
			created, err := a.svc.AddChoreTemplate(ctx, tpl)
			if err != nil {
				return a.failure(err)
			}
			fmt.Fprintf(a.out, "added template %s (%s)\n", created.Name, created.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&description, "description", "", "Template description")
	add.Flags().StringVar(&recurrence, "recurrence", string(domain.RecurrenceDaily), "Recurrence (daily, weekly)")
	add.Flags().StringSliceVar(&days, "days", nil, "Weekdays for weekly templates (Mon..Sun)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List chore templates",
			Args:  cobra.NoArgs,
			RunE: withService(flags, func(_ context.Context, a *app, _ []string) error {
				renderTemplates(a.out, a.svc.Store().ListTemplates())
				return nil
			}),
		},
		add,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a chore template",
			Args:  cobra.ExactArgs(1),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				if err := a.svc.DeleteChoreTemplate(ctx, args[0]); err != nil {
					return a.failure(err)
				}
				fmt.Fprintf(a.out, "deleted template %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}

func buildTemplate(name, description, recurrence string, days []string) (domain.ChoreTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return domain.ChoreTemplate{}, domain.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	tpl := domain.ChoreTemplate{
		Name:        name,
		Description: description,
		Recurrence:  domain.Recurrence(recurrence),
		Days:        []domain.Weekday{},
	}
	for _, d := range days {
		w, err := domain.ParseWeekday(strings.TrimSpace(d))
		if err != nil {
			return domain.ChoreTemplate{}, domain.ValidationError{Field: "days", Reason: err.Error()}
		}
		tpl.Days = append(tpl.Days, w)
	}
	return tpl, nil
}

func choresCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "chores", Short: "Assign and update chores"}

	var addDescription, addDue string
	add := &cobra.Command{
		Use:   "add MEMBER NAME",
		Short: "Add a one-off chore to a member",
		Args:  cobra.ExactArgs(2),
		RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
			chore := domain.Chore{Name: args[1], Description: addDescription}
			if addDue != "" {
				due, err := domain.ParseDate(addDue)
				if err != nil {
					return err
				}
				chore.DueDate = due
			}
			created, err := a.svc.AddChore(ctx, args[0], chore)
			if err != nil {
				return a.failure(err)
			}
			fmt.Fprintf(a.out, "added chore %s (%s) due %s\n", created.Name, created.ID, created.DueDate)
			return nil
		}),
	}
	add.Flags().StringVar(&addDescription, "description", "", "Chore description")
	add.Flags().StringVar(&addDue, "due", "", "Due date (YYYY-MM-DD, default today)")

	var (
		editName, editDescription, editDue string
		editCompleted                      bool
	)
	var edit *cobra.Command
	edit = &cobra.Command{
		Use:   "edit MEMBER CHORE",
		Short: "Edit fields of a chore",
		Args:  cobra.ExactArgs(2),
		RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
			var update domain.ChoreUpdate
			changed := edit.Flags().Changed
			if changed("name") {
				update.Name = &editName
			}
			if changed("description") {
				update.Description = &editDescription
			}
			if changed("completed") {
				update.Completed = &editCompleted
			}
			if changed("due") {
				due, err := domain.ParseDate(editDue)
				if err != nil {
					return err
				}
				update.DueDate = &due
			}
			if err := a.svc.EditChore(ctx, args[0], args[1], update); err != nil {
				return a.failure(err)
			}
			fmt.Fprintf(a.out, "updated chore %s\n", args[1])
			return nil
		}),
	}
	edit.Flags().StringVar(&editName, "name", "", "New name")
	edit.Flags().StringVar(&editDescription, "description", "", "New description")
	edit.Flags().BoolVar(&editCompleted, "completed", false, "Completed state")
	edit.Flags().StringVar(&editDue, "due", "", "New due date (YYYY-MM-DD)")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "assign TEMPLATE MEMBER",
			Short: "Assign a new chore built from a template",
			Args:  cobra.ExactArgs(2),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				chore, err := a.svc.AssignChoreFromTemplate(ctx, args[0], args[1])
				if err != nil {
					return a.failure(err)
				}
				fmt.Fprintf(a.out, "assigned %s (%s) to %s\n", chore.Name, chore.ID, args[1])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "toggle MEMBER CHORE",
			Short: "Flip a chore between open and done",
			Args:  cobra.ExactArgs(2),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				if err := a.svc.ToggleChore(ctx, args[0], args[1]); err != nil {
					return a.failure(err)
				}
				chore, err := a.svc.Store().FindChore(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s is now %s\n", chore.Name, status(chore))
				return nil
			}),
		},
		edit,
		&cobra.Command{
			Use:   "reassign FROM TO CHORE",
			Short: "Move a chore to another member",
			Args:  cobra.ExactArgs(3),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				if err := a.svc.ReassignChore(ctx, args[0], args[1], args[2]); err != nil {
					return a.failure(err)
				}
				fmt.Fprintf(a.out, "moved chore %s from %s to %s\n", args[2], args[0], args[1])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "unassign MEMBER CHORE",
			Short: "Remove a chore from a member",
			Args:  cobra.ExactArgs(2),
			RunE: withService(flags, func(ctx context.Context, a *app, args []string) error {
				if err := a.svc.UnassignChore(ctx, args[0], args[1]); err != nil {
					return a.failure(err)
				}
				fmt.Fprintf(a.out, "removed chore %s\n", args[1])
				return nil
			}),
		},
	)
	return cmd
}

func todayCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the chores due today for each member",
		Args:  cobra.NoArgs,
		RunE: withService(flags, func(_ context.Context, a *app, _ []string) error {
			renderToday(a.out, a.svc.Today(), a.svc.Store().ListMembers(), a.svc.DueToday())
			return nil
		}),
	}
}

// resetter is implemented by backends that keep state on this device.
type resetter interface {
	Reset(ctx context.Context) (int, error)
}

func resetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the locally stored collections and return to the seed household",
		Args:  cobra.NoArgs,
		RunE: withService(flags, func(ctx context.Context, a *app, _ []string) error {
			r, ok := a.adapter.(resetter)
			if !ok {
				return fmt.Errorf("reset is only available in local mode, not %s", a.cfg.Mode)
			}
			removed, err := r.Reset(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %d stored collections\n", removed)
			return nil
		}),
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Write configuration files"}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init PATH",
		Short: "Write the default configuration, with --mode and --log-level applied, to PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := config.DefaultConfig()
			if flags.mode != "" {
				cfg.Mode = flags.mode
			}
			if flags.logLevel != "" {
				cfg.LogLevel = flags.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
