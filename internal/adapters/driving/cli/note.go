package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/notes"
)

// shortIDLength is how much of a note id is printed.
const shortIDLength = 8

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Read and change the shared note board",
	Long: `Add, list and remove notes on the shared board.

Changes are applied locally at once and uploaded when the remote store is
available. Without credentials they wait in the local log.`,
}

var noteAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a note",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNoteAdd,
}

var noteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notes",
	RunE:    runNoteList,
}

var noteRemoveCmd = &cobra.Command{
	Use:     "rm <note-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a note by id or unique id prefix",
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteRemove,
}

var noteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every note",
	RunE:  runNoteClear,
}

// Flags for note commands.
var (
	noteAuthor   string
	noteClearYes bool
)

func init() {
	noteAddCmd.Flags().StringVar(&noteAuthor, "author", "", "Author shown on the note (defaults to the signed-in user)")
	noteClearCmd.Flags().BoolVarP(&noteClearYes, "yes", "y", false, "Do not ask for confirmation")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteRemoveCmd)
	noteCmd.AddCommand(noteClearCmd)
	rootCmd.AddCommand(noteCmd)
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		author := noteAuthor
		if author == "" {
			if creds, ok := rt.Credentials.Current(); ok {
				author = creds.UserID
			}
		}

		update, err := notes.AddUpdate(strings.Join(args, " "), author, time.Now())
		if err != nil {
			return err
		}
		if err := dispatch(ctx, cmd, rt, update); err != nil {
			return err
		}

		cmd.Printf("Added note %s\n", shortID(noteIDFrom(update)))
		return nil
	})
}

func runNoteList(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(_ context.Context, rt *app.Runtime) error {
		board := rt.Board.State()
		if len(board.Notes) == 0 {
			cmd.Println("No notes.")
			return nil
		}
		for _, n := range board.Notes {
			author := ""
			if n.Author != "" {
				author = " (" + n.Author + ")"
			}
			cmd.Printf("%s  %s  %s%s\n", shortID(n.ID), n.Created.Local().Format("2006-01-02 15:04"), n.Text, author)
		}
		return nil
	})
}

func runNoteRemove(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		note, ok := rt.Board.State().Find(args[0])
		if !ok {
			return fmt.Errorf("%w: no single note matches %q", notes.ErrNoteNotFound, args[0])
		}

		update, err := notes.RemoveUpdate(note.ID)
		if err != nil {
			return err
		}
		if err := dispatch(ctx, cmd, rt, update); err != nil {
			return err
		}

		cmd.Printf("Removed note %s\n", shortID(note.ID))
		return nil
	})
}

func runNoteClear(cmd *cobra.Command, _ []string) error {
	if !noteClearYes && !confirm(cmd, "Remove every note for all users?") {
		cmd.Println("Cancelled.")
		return nil
	}

	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		count := len(rt.Board.State().Notes)
		update, err := notes.ClearUpdate()
		if err != nil {
			return err
		}
		if err := dispatch(ctx, cmd, rt, update); err != nil {
			return err
		}

		cmd.Printf("Cleared %d notes\n", count)
		return nil
	})
}

// dispatch hands update to the engine and reports whether it left the
// machine.
func dispatch(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, update domain.Update) error {
	if err := rt.Engine.DispatchUpdate(ctx, update); err != nil {
		return fmt.Errorf("failed to save change: %w", err)
	}

	status, err := rt.Engine.Status(ctx)
	if err != nil {
		return err
	}
	if status.Unsaved > 0 {
		cmd.Printf("Saved locally; %d change(s) waiting for upload.\n", status.Unsaved)
	}
	return nil
}

// noteIDFrom returns the id of the note an add update carries.
func noteIDFrom(update domain.Update) string {
	if len(update.Actions) == 1 {
		var n notes.Note
		if err := update.Actions[0].Decode(&n); err == nil && n.ID != "" {
			return n.ID
		}
	}
	return update.ID
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func confirm(cmd *cobra.Command, question string) bool {
	cmd.Printf("%s [y/N]: ", question)
	answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
	return answer == "y" || answer == "yes"
}
