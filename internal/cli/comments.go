package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/anonto42/wisora/internal/engagement"
)

type nodeView struct {
	ID        string              `json:"id"`
	Kind      engagement.NodeKind `json:"kind"`
	ParentID  string              `json:"parentId"`
	Depth     int                 `json:"depth,omitempty"`
	Author    engagement.UserRef  `json:"author"`
	Body      string              `json:"body"`
	Deleted   bool                `json:"deleted,omitempty"`
	Replies   int                 `json:"replies"`
	CreatedAt time.Time           `json:"createdAt"`
	Edited    bool                `json:"edited,omitempty"`
}

func viewOf(n engagement.Node, depth int) nodeView {
	return nodeView{
		ID:        n.ID,
		Kind:      n.Kind,
		ParentID:  n.ParentID,
		Depth:     depth,
		Author:    n.Author,
		Body:      n.Body,
		Deleted:   n.Deleted,
		Replies:   len(n.ChildIDs),
		CreatedAt: n.CreatedAt,
		Edited:    !n.EditedAt.IsZero(),
	}
}

func printNode(w io.Writer, v nodeView) {
	indent := strings.Repeat("  ", max(v.Depth-1, 0))
	if v.Deleted {
		fmt.Fprintf(w, "%s[deleted] %s\n", indent, v.ID)
		return
	}
	edited := ""
	if v.Edited {
		edited = " (edited)"
	}
	fmt.Fprintf(w, "%s%s  @%s: %s%s\n", indent, v.ID, v.Author.Username, v.Body, edited)
}

// threadScope is where a comment command finds its nodes: the question's
// answers and, optionally, one answer's comment thread.
type threadScope struct {
	question string
	answer   string
}

func (s *threadScope) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.question, "question", "", "question the answer belongs to (required)")
	cmd.Flags().StringVar(&s.answer, "answer", "", "answer at the root of the thread")
	_ = cmd.MarkFlagRequired("question")
}

func (s *threadScope) load(ctx context.Context, eng *engagement.Engine) error {
	if _, err := eng.Tree.LoadAnswers(ctx, s.question); err != nil {
		return err
	}
	if s.answer == "" {
		return nil
	}
	_, err := eng.Tree.LoadSubtree(ctx, s.answer)
	return err
}

func NewCommentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Show and edit comment threads",
	}
	cmd.AddCommand(newCommentsShowCommand(opts))
	cmd.AddCommand(newCommentsReplyCommand(opts))
	cmd.AddCommand(newCommentsEditCommand(opts))
	cmd.AddCommand(newCommentsDeleteCommand(opts))
	return cmd
}

func newCommentsShowCommand(opts *RootOptions) *cobra.Command {
	var scope threadScope
	cmd := &cobra.Command{
		Use:   "show <answerId>",
		Short: "Print the comment thread below an answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope.answer = args[0]
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			if err := scope.load(cmd.Context(), eng); err != nil {
				return err
			}
			items := eng.Tree.Thread(args[0])
			views := make([]nodeView, 0, len(items))
			for _, item := range items {
				views = append(views, viewOf(item.Node, item.Depth))
			}
			return opts.formatter(cmd).Success(views, func(w io.Writer) {
				if len(views) == 0 {
					fmt.Fprintln(w, "no comments")
				}
				for _, v := range views {
					printNode(w, v)
				}
			})
		},
	}
	cmd.Flags().StringVar(&scope.question, "question", "", "question the answer belongs to (required)")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func newCommentsReplyCommand(opts *RootOptions) *cobra.Command {
	var scope threadScope
	cmd := &cobra.Command{
		Use:   "reply <parentId> <text>",
		Short: "Reply to an answer or a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope.answer == "" {
				scope.answer = args[0]
			}
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			ctx := cmd.Context()
			if err := scope.load(ctx, eng); err != nil {
				return err
			}
			node, err := eng.Tree.AttachReply(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			v := viewOf(node, 0)
			return opts.formatter(cmd).Success(v, func(w io.Writer) {
				fmt.Fprintf(w, "replied to %s\n", args[0])
				printNode(w, v)
			})
		},
	}
	scope.bind(cmd)
	return cmd
}

func newCommentsEditCommand(opts *RootOptions) *cobra.Command {
	var scope threadScope
	cmd := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Edit one of your answers or comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			ctx := cmd.Context()
			if err := scope.load(ctx, eng); err != nil {
				return err
			}
			node, err := eng.Tree.EditNode(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			v := viewOf(node, 0)
			return opts.formatter(cmd).Success(v, func(w io.Writer) { printNode(w, v) })
		},
	}
	scope.bind(cmd)
	return cmd
}

func newCommentsDeleteCommand(opts *RootOptions) *cobra.Command {
	var scope threadScope
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your comments; replies stay visible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			ctx := cmd.Context()
			if err := scope.load(ctx, eng); err != nil {
				return err
			}
			if err := eng.Tree.SoftDeleteComment(ctx, args[0]); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(map[string]any{"id": args[0], "deleted": true}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %s\n", args[0])
			})
		},
	}
	scope.bind(cmd)
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}

func NewAnswersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answers",
		Short: "List and delete answers",
	}
	cmd.AddCommand(newAnswersListCommand(opts))
	cmd.AddCommand(newAnswersDeleteCommand(opts))
	return cmd
}

func newAnswersListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <questionId>",
		Short: "List the answers to a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			nodes, err := eng.Tree.LoadAnswers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			views := make([]nodeView, 0, len(nodes))
			for _, n := range nodes {
				views = append(views, viewOf(n, 0))
			}
			return opts.formatter(cmd).Success(views, func(w io.Writer) {
				if len(views) == 0 {
					fmt.Fprintln(w, "no answers")
				}
				for _, v := range views {
					printNode(w, v)
				}
			})
		},
	}
}

func newAnswersDeleteCommand(opts *RootOptions) *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your answers with all its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			ctx := cmd.Context()
			if _, err := eng.Tree.LoadAnswers(ctx, question); err != nil {
				return err
			}
			if err := eng.DeleteAnswer(ctx, args[0]); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(map[string]any{"id": args[0], "deleted": true}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted answer %s\n", args[0])
			})
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "question the answer belongs to (required)")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}
