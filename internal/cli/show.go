package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/VitaminP8/forum/internal/storage/relational"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/VitaminP8/forum/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

// NewListCommand создает команду списка веток
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List threads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(rootOpts, func(s *relational.PostRelationalStorage) error {
				roots, err := s.GetRootPosts()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(roots) == 0 {
					fmt.Fprintln(out, "No posts yet.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tAUTHOR\tCREATED\tMESSAGE")
				for _, p := range roots {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Author, p.CreatedAt.UTC().Format(timeLayout), firstLine(p.Message))
				}
				return w.Flush()
			})
		},
	}
}

// NewShowCommand создает команду вывода поста с деревом ответов
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post with all replies below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStorage(rootOpts, func(s *relational.PostRelationalStorage) error {
				found, err := s.GetPostByID(id)
				if err != nil {
					return err
				}

				replies, err := thread.NewAssembler(s).BuildTree(id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printPost(out, *found, 0)
				printTree(out, replies, 1)
				return nil
			})
		},
	}
}

func printTree(w io.Writer, nodes []*models.TreeNode, depth int) {
	for _, node := range nodes {
		printPost(w, node.Post, depth)
		printTree(w, node.Replies, depth+1)
	}
}

func printPost(w io.Writer, p models.Post, depth int) {
	indent := strings.Repeat("  ", depth)

	color.New(color.Faint).Fprintf(w, "%s#%d %s · %s\n", indent, p.ID, p.Author, p.CreatedAt.UTC().Format(timeLayout))
	for _, line := range strings.Split(p.Message, "\n") {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}
