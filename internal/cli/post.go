package cli

import (
	"github.com/VitaminP8/forum/internal/storage/relational"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewPostCommand создает команду публикации нового поста
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post <author> <message>",
		Short: "Start a new thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(rootOpts, func(s *relational.PostRelationalStorage) error {
				created, err := s.CreateRootPost(args[0], args[1])
				if err != nil {
					return err
				}

				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Created post #%d\n", created.ID)
				return nil
			})
		},
	}
}

// NewReplyCommand создает команду ответа на пост
func NewReplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <parent-id> <author> <message>",
		Short: "Reply to a post",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStorage(rootOpts, func(s *relational.PostRelationalStorage) error {
				reply, err := s.CreateReply(parentID, args[1], args[2])
				if err != nil {
					return err
				}

				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Created reply #%d in thread #%d\n", reply.ID, reply.ThreadRootID())
				return nil
			})
		},
	}
}

// NewDeleteCommand создает команду мягкого удаления поста
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft delete a post, its replies stay visible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStorage(rootOpts, func(s *relational.PostRelationalStorage) error {
				if err := s.SoftDeletePost(id); err != nil {
					return err
				}

				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "Deleted post #%d\n", id)
				return nil
			})
		},
	}
}
