package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Veraticus/crm-sheets/internal/cli"
	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/service"
	"github.com/Veraticus/crm-sheets/internal/storage"
	"github.com/spf13/cobra"
)

// withStore opens the database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *storage.SQLiteStorage) error) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := initStorage(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(ctx, store)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// optionalString returns the flag value when it was given.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optionalInt64(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt64(name)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// confirmDelete asks before deleting unless --yes was given.
func confirmDelete(ctx context.Context, cmd *cobra.Command, what string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	return cli.NewConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(ctx, "Delete "+what+"?")
}

func deleteCmd(entity string, remove func(ctx context.Context, store *storage.SQLiteStorage, id int64) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + entity,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				ok, err := confirmDelete(ctx, cmd, fmt.Sprintf("%s %d", entity, id))
				if err != nil || !ok {
					return err
				}
				if err := remove(ctx, store, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s %d", entity, id)))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", service.DefaultListLimit, "Maximum number of records")
	cmd.Flags().Int("offset", 0, "Number of records to skip")
}

func listPaging(cmd *cobra.Command) (int, int) {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return limit, offset
}

// Clients

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client"},
		Short:   "Manage clients",
	}

	cmd.AddCommand(clientsListCmd())
	cmd.AddCommand(clientsSearchCmd())
	cmd.AddCommand(clientsAddCmd())
	cmd.AddCommand(clientsUpdateCmd())
	cmd.AddCommand(clientsArchiveCmd())
	cmd.AddCommand(deleteCmd("client", func(ctx context.Context, store *storage.SQLiteStorage, id int64) error {
		return store.DeleteClient(ctx, id)
	}))

	return cmd
}

func printClients(w io.Writer, clients []model.Client) {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10), c.Name, deref(c.Email), deref(c.Phone), c.Status,
		})
	}
	fmt.Fprintln(w, cli.RenderTable([]string{"ID", "Name", "Email", "Phone", "Status"}, rows))
}

func clientsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, offset := listPaging(cmd)
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				clients, err := store.ListClients(ctx, service.ClientFilter{Status: status, Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				printClients(cmd.OutOrStdout(), clients)
				return nil
			})
		},
	}
	cmd.Flags().String("status", "", "Only clients with this status (active, archived)")
	addListFlags(cmd)
	return cmd
}

func clientsSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search clients by name, email, phone or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				clients, err := store.SearchClients(ctx, args[0], limit)
				if err != nil {
					return err
				}
				printClients(cmd.OutOrStdout(), clients)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum number of results (default 50)")
	return cmd
}

func clientsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			client := &model.Client{
				Name:   args[0],
				Email:  optionalString(cmd, "email"),
				Phone:  optionalString(cmd, "phone"),
				Notes:  optionalString(cmd, "notes"),
				Status: status,
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.CreateClient(ctx, client); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created client %d", client.ID)))
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().String("status", model.ClientStatusActive, "Status")
	return cmd
}

func clientsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change client fields; an empty value clears email, phone or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := model.ClientPatch{
				Name:   optionalString(cmd, "name"),
				Email:  optionalString(cmd, "email"),
				Phone:  optionalString(cmd, "phone"),
				Status: optionalString(cmd, "status"),
				Notes:  optionalString(cmd, "notes"),
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				client, err := store.UpdateClient(ctx, id, patch)
				if err != nil {
					return err
				}
				printClients(cmd.OutOrStdout(), []model.Client{*client})
				return nil
			})
		},
	}
	for _, name := range []string{"name", "email", "phone", "status", "notes"} {
		cmd.Flags().String(name, "", "New "+name)
	}
	return cmd
}

func clientsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Mark a client as archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if _, err := store.ArchiveClient(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Archived client %d", id)))
				return nil
			})
		},
	}
}

// Deals

func dealsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deals",
		Aliases: []string{"deal"},
		Short:   "Manage deals",
	}

	cmd.AddCommand(dealsListCmd())
	cmd.AddCommand(dealsSearchCmd())
	cmd.AddCommand(dealsAddCmd())
	cmd.AddCommand(dealsUpdateCmd())
	cmd.AddCommand(deleteCmd("deal", func(ctx context.Context, store *storage.SQLiteStorage, id int64) error {
		return store.DeleteDeal(ctx, id)
	}))

	return cmd
}

func printDeals(w io.Writer, deals []model.Deal) {
	rows := make([][]string, 0, len(deals))
	for _, d := range deals {
		amount := ""
		if d.Amount != nil {
			amount = strconv.FormatFloat(*d.Amount, 'f', 2, 64)
		}
		rows = append(rows, []string{
			strconv.FormatInt(d.ID, 10), d.Title, formatID(d.ClientID), amount, d.Status,
		})
	}
	fmt.Fprintln(w, cli.RenderTable([]string{"ID", "Title", "Client", "Amount", "Status"}, rows))
}

func dealsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, offset := listPaging(cmd)
			filter := service.DealFilter{
				ClientID: optionalInt64(cmd, "client"),
				Status:   status,
				Limit:    limit,
				Offset:   offset,
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				deals, err := store.ListDeals(ctx, filter)
				if err != nil {
					return err
				}
				printDeals(cmd.OutOrStdout(), deals)
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "Only deals of this client")
	cmd.Flags().String("status", "", "Only deals with this status (draft, in_progress, won, lost)")
	addListFlags(cmd)
	return cmd
}

func dealsSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search deals by title or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				deals, err := store.SearchDeals(ctx, args[0], limit)
				if err != nil {
					return err
				}
				printDeals(cmd.OutOrStdout(), deals)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum number of results (default 50)")
	return cmd
}

func dealsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			deal := &model.Deal{
				Title:    args[0],
				ClientID: optionalInt64(cmd, "client"),
				Notes:    optionalString(cmd, "notes"),
				Status:   status,
			}
			if cmd.Flags().Changed("amount") {
				amount, _ := cmd.Flags().GetFloat64("amount")
				deal.Amount = &amount
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.CreateDeal(ctx, deal); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created deal %d", deal.ID)))
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "Client ID")
	cmd.Flags().Float64("amount", 0, "Deal amount")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().String("status", model.DealStatusDraft, "Status (draft, in_progress, won, lost)")
	return cmd
}

func dealsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change deal fields; an empty --notes clears the notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := model.DealPatch{
				ClientID: optionalInt64(cmd, "client"),
				Title:    optionalString(cmd, "title"),
				Status:   optionalString(cmd, "status"),
				Notes:    optionalString(cmd, "notes"),
			}
			if cmd.Flags().Changed("amount") {
				amount, _ := cmd.Flags().GetFloat64("amount")
				patch.Amount = &amount
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				deal, err := store.UpdateDeal(ctx, id, patch)
				if err != nil {
					return err
				}
				printDeals(cmd.OutOrStdout(), []model.Deal{*deal})
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "New client ID")
	cmd.Flags().Float64("amount", 0, "New amount")
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("status", "", "New status")
	cmd.Flags().String("notes", "", "New notes")
	return cmd
}

// Tasks

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(tasksListCmd())
	cmd.AddCommand(tasksSearchCmd())
	cmd.AddCommand(tasksAddCmd())
	cmd.AddCommand(tasksCompleteCmd())
	cmd.AddCommand(deleteCmd("task", func(ctx context.Context, store *storage.SQLiteStorage, id int64) error {
		return store.DeleteTask(ctx, id)
	}))

	return cmd
}

func printTasks(w io.Writer, tasks []model.Task) {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		done := ""
		if t.IsCompleted {
			done = cli.SuccessIcon
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(time.DateOnly)
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10), t.Title, due, formatID(t.ClientID), formatID(t.DealID), done,
		})
	}
	fmt.Fprintln(w, cli.RenderTable([]string{"ID", "Title", "Due", "Client", "Deal", "Done"}, rows))
}

func tasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, offset := listPaging(cmd)
			filter := service.TaskFilter{
				ClientID: optionalInt64(cmd, "client"),
				DealID:   optionalInt64(cmd, "deal"),
				Limit:    limit,
				Offset:   offset,
			}
			if cmd.Flags().Changed("completed") {
				completed, _ := cmd.Flags().GetBool("completed")
				filter.Completed = &completed
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				tasks, err := store.ListTasks(ctx, filter)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "Only tasks of this client")
	cmd.Flags().Int64("deal", 0, "Only tasks of this deal")
	cmd.Flags().Bool("completed", false, "Only completed (true) or open (false) tasks")
	addListFlags(cmd)
	return cmd
}

func tasksSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search tasks by title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				tasks, err := store.SearchTasks(ctx, args[0], limit)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum number of results (default 50)")
	return cmd
}

func tasksAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := &model.Task{
				Title:       args[0],
				Description: optionalString(cmd, "description"),
				ClientID:    optionalInt64(cmd, "client"),
				DealID:      optionalInt64(cmd, "deal"),
			}
			if due := optionalString(cmd, "due"); due != nil {
				t, err := time.ParseInLocation(time.DateOnly, *due, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --due %q (expected YYYY-MM-DD)", *due)
				}
				task.DueDate = &t
			}
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.CreateTask(ctx, task); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created task %d", task.ID)))
				return nil
			})
		},
	}
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().Int64("client", 0, "Client ID")
	cmd.Flags().Int64("deal", 0, "Deal ID")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func tasksCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task as done (or open again with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			undo, _ := cmd.Flags().GetBool("undo")
			return withStore(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				task, err := store.SetTaskCompleted(ctx, id, !undo)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), []model.Task{*task})
				return nil
			})
		},
	}
	cmd.Flags().Bool("undo", false, "Mark the task as not completed")
	return cmd
}
