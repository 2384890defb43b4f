package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anonto42/wisora/internal/engagement"
)

type likeResult struct {
	Target engagement.ReactionTarget `json:"target"`
	engagement.ReactionState
}

func NewLikeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <question|answer|comment> <id>",
		Short: "Toggle your like on a question, answer or comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := engagement.ParseTargetKind(args[0])
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown target kind %q", args[0]))
			}
			target := engagement.ReactionTarget{ID: args[1], Kind: kind}

			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			state, err := eng.Reactions.Toggle(cmd.Context(), target)
			if err != nil {
				return err
			}

			out := opts.formatter(cmd)
			return out.Success(likeResult{Target: target, ReactionState: state}, func(w io.Writer) {
				verb := "unliked"
				if state.Liked {
					verb = "liked"
				}
				fmt.Fprintf(w, "%s %s (%d likes)\n", verb, target, state.Count)
			})
		},
	}
}

func NewFollowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <userId>",
		Short: "Follow a user, or unfollow if already following",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			following, err := eng.Follows.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := opts.formatter(cmd)
			return out.Success(map[string]any{"userId": args[0], "following": following}, func(w io.Writer) {
				if following {
					fmt.Fprintf(w, "following %s\n", args[0])
				} else {
					fmt.Fprintf(w, "unfollowed %s\n", args[0])
				}
			})
		},
	}
}
