package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/deadline"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "records",
	Short:   "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, newest first",
	Long: `List tasks ordered by creation time, newest first.

Completed tasks are hidden when the showCompleted setting is false, unless
--all is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")

		a := openApp(appOptions{})
		defer a.Close()
		ctx := context.Background()

		tasks, err := a.orch.ListTasks(ctx)
		if err != nil {
			fatal(err)
		}

		if !all {
			settings, err := a.orch.Settings(ctx)
			if err != nil {
				fatal(err)
			}
			if show, ok := settings[schema.SettingShowCompleted].(bool); ok && !show {
				tasks = filterOpen(tasks)
			}
		}

		if jsonOutput {
			printJSON(tasks)
			return
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return
		}
		for _, t := range tasks {
			fmt.Println(formatTask(t))
		}
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()

		t, err := a.orch.GetTask(context.Background(), args[0])
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			printJSON(t)
			return
		}
		fmt.Printf("%s %s\n", ui.Checkbox(t.Completed), ui.RenderAccent(t.Title))
		fmt.Printf("   ID:          %s\n", t.ID)
		if t.Description != nil {
			fmt.Printf("   Description: %s\n", *t.Description)
		}
		if t.Deadline != nil {
			fmt.Printf("   Deadline:    %s\n", *t.Deadline)
		}
		fmt.Printf("   Created:     %s\n", t.CreatedAt)
		if t.UpdatedAt != nil {
			fmt.Printf("   Updated:     %s\n", *t.UpdatedAt)
		}
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a task",
	Long: `Create a task.

The deadline accepts an ISO date or date-time, or natural language such as
"tomorrow 5pm". With --data the task is read from a JSON object instead:

  taskmgr task add --data '{"title":"Ship it","deadline":"2026-01-31"}'`,
	Run: func(cmd *cobra.Command, args []string) {
		in := taskInputFromFlags(cmd, args, nil)

		a := openApp(appOptions{})
		defer a.Close()

		id, err := a.orch.CreateTask(context.Background(), in)
		if failedMutation(err) {
			fatal(err)
		}

		if jsonOutput {
			printJSON(map[string]string{"id": id})
		} else {
			fmt.Printf("%s Created task %s\n", ui.RenderPass(ui.IconPass), ui.RenderAccent(id))
		}
		checkMutation(err)
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Replace a task's title, description and deadline",
	Long: `Edit a task. Fields not given keep their current value; pass an empty
string to clear the description or deadline.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()
		ctx := context.Background()

		current, err := a.orch.GetTask(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		in := taskInputFromFlags(cmd, nil, current)
		err = a.orch.UpdateTask(ctx, args[0], in)
		if failedMutation(err) {
			fatal(err)
		}
		if !jsonOutput {
			fmt.Printf("%s Updated task %s\n", ui.RenderPass(ui.IconPass), ui.RenderAccent(args[0]))
		}
		checkMutation(err)
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()

		err := a.orch.DeleteTask(context.Background(), args[0])
		if failedMutation(err) {
			fatal(err)
		}
		if !jsonOutput {
			fmt.Printf("%s Deleted task %s\n", ui.RenderPass(ui.IconPass), args[0])
		}
		checkMutation(err)
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a task's completed flag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()
		ctx := context.Background()

		err := a.orch.ToggleTask(ctx, args[0])
		if failedMutation(err) {
			fatal(err)
		}
		if t, gerr := a.orch.GetTask(ctx, args[0]); gerr == nil {
			if jsonOutput {
				printJSON(t)
			} else {
				fmt.Println(formatTask(*t))
			}
		}
		checkMutation(err)
	},
}

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().String("title", "", "Task title")
		c.Flags().StringP("description", "d", "", "Task description")
		c.Flags().String("deadline", "", `Deadline (ISO date, or e.g. "tomorrow 5pm")`)
		c.Flags().String("data", "", "Task as a JSON object")
	}
	taskAddCmd.Flags().BoolP("interactive", "i", false, "Fill in the task with a form")
	taskListCmd.Flags().BoolP("all", "a", false, "Include completed tasks regardless of settings")

	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskAddCmd, taskEditCmd, taskRmCmd, taskToggleCmd)
	rootCmd.AddCommand(taskCmd)
}

// taskInputFromFlags builds a TaskInput from --data, the interactive form or
// individual flags. For edits, current supplies fields that were not given.
func taskInputFromFlags(cmd *cobra.Command, args []string, current *schema.Task) schema.TaskInput {
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		in, err := schema.DecodeTaskInput([]byte(data))
		if err != nil {
			fatal(err)
		}
		if in.Deadline != nil {
			in.Deadline = parseDeadline(*in.Deadline)
		}
		return in
	}

	var in schema.TaskInput
	if current != nil {
		// Stored text is HTML-escaped; unescape so it is not escaped twice.
		in = schema.TaskInput{Title: html.UnescapeString(current.Title), Deadline: current.Deadline}
		if current.Description != nil {
			desc := html.UnescapeString(*current.Description)
			in.Description = &desc
		}
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return runTaskForm(in)
	}

	if len(args) > 0 {
		in.Title = strings.Join(args, " ")
	}
	if cmd.Flags().Changed("title") {
		in.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("description") {
		desc, _ := cmd.Flags().GetString("description")
		in.Description = &desc
	}
	if cmd.Flags().Changed("deadline") {
		raw, _ := cmd.Flags().GetString("deadline")
		in.Deadline = parseDeadline(raw)
	}
	return in
}

// parseDeadline resolves natural-language deadlines. Empty clears the field.
func parseDeadline(raw string) *string {
	d, err := deadline.Parse(raw, time.Now())
	if err != nil {
		fatal(err)
	}
	if d == "" {
		return nil
	}
	return &d
}

func runTaskForm(in schema.TaskInput) schema.TaskInput {
	var desc, due string
	if in.Description != nil {
		desc = *in.Description
	}
	if in.Deadline != nil {
		due = *in.Deadline
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&in.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&desc),
			huh.NewInput().
				Title("Deadline").
				Description(`ISO date or natural language, e.g. "friday 9am"`).
				Value(&due).
				Validate(func(s string) error {
					_, err := deadline.Parse(s, time.Now())
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(exitError)
	}

	in.Description = &desc
	in.Deadline = parseDeadline(due)
	return in
}

func filterOpen(tasks []schema.Task) []schema.Task {
	open := make([]schema.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open
}

func formatTask(t schema.Task) string {
	line := fmt.Sprintf("%s %s  %s", ui.Checkbox(t.Completed), ui.RenderMuted(t.ID), t.Title)
	if t.Deadline != nil {
		line += ui.RenderWarn("  due " + *t.Deadline)
	}
	return line
}
