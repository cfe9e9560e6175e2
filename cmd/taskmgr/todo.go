package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var todoCmd = &cobra.Command{
	Use:     "todo",
	GroupID: "records",
	Short:   "Manage todos",
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos in creation order",
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()

		todos, err := a.orch.ListTodos(context.Background())
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			printJSON(todos)
			return
		}
		if len(todos) == 0 {
			fmt.Println("No todos.")
			return
		}
		for _, t := range todos {
			fmt.Printf("%s %s  %s\n", ui.Checkbox(t.Completed), ui.RenderMuted(fmt.Sprintf("%4d", t.ID)), t.Text)
		}
	},
}

var todoAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Create a todo",
	Run: func(cmd *cobra.Command, args []string) {
		in := todoInput(cmd, args)

		a := openApp(appOptions{})
		defer a.Close()

		id, err := a.orch.CreateTodo(context.Background(), in)
		if failedMutation(err) {
			fatal(err)
		}
		if jsonOutput {
			printJSON(map[string]int64{"id": id})
		} else {
			fmt.Printf("%s Created todo %s\n", ui.RenderPass(ui.IconPass), ui.RenderAccent(strconv.FormatInt(id, 10)))
		}
		checkMutation(err)
	},
}

var todoEditCmd = &cobra.Command{
	Use:   "edit <id> <text>",
	Short: "Replace a todo's text",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTodoID(args[0])
		in := todoInput(cmd, args[1:])

		a := openApp(appOptions{})
		defer a.Close()

		err := a.orch.UpdateTodo(context.Background(), id, in)
		if failedMutation(err) {
			fatal(err)
		}
		if !jsonOutput {
			fmt.Printf("%s Updated todo %d\n", ui.RenderPass(ui.IconPass), id)
		}
		checkMutation(err)
	},
}

var todoRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a todo",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTodoID(args[0])

		a := openApp(appOptions{})
		defer a.Close()

		err := a.orch.DeleteTodo(context.Background(), id)
		if failedMutation(err) {
			fatal(err)
		}
		if !jsonOutput {
			fmt.Printf("%s Deleted todo %d\n", ui.RenderPass(ui.IconPass), id)
		}
		checkMutation(err)
	},
}

var todoToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a todo's completed flag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTodoID(args[0])

		a := openApp(appOptions{})
		defer a.Close()

		err := a.orch.ToggleTodo(context.Background(), id)
		if failedMutation(err) {
			fatal(err)
		}
		if !jsonOutput {
			fmt.Printf("%s Toggled todo %d\n", ui.RenderPass(ui.IconPass), id)
		}
		checkMutation(err)
	},
}

func init() {
	todoAddCmd.Flags().String("data", "", "Todo as a JSON object")
	todoEditCmd.Flags().String("data", "", "Todo as a JSON object")

	todoCmd.AddCommand(todoListCmd, todoAddCmd, todoEditCmd, todoRmCmd, todoToggleCmd)
	rootCmd.AddCommand(todoCmd)
}

func todoInput(cmd *cobra.Command, args []string) schema.TodoInput {
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		in, err := schema.DecodeTodoInput([]byte(data))
		if err != nil {
			fatal(err)
		}
		return in
	}
	return schema.TodoInput{Text: strings.Join(args, " ")}
}

// parseTodoID parses a todo id argument. A malformed id is a client error.
func parseTodoID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		fatal(&store.ValidationError{Field: "id", Message: fmt.Sprintf("invalid todo id %q", s)})
	}
	return id
}
