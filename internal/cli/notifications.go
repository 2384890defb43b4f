package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/anonto42/wisora/internal/engagement"
)

func NewNotificationsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notifs"},
		Short:   "Read and acknowledge notifications",
	}
	cmd.AddCommand(newNotificationsListCommand(opts))
	cmd.AddCommand(newNotificationsWatchCommand(opts))
	cmd.AddCommand(newNotificationsReadCommand(opts))
	cmd.AddCommand(newNotificationsReadAllCommand(opts))
	return cmd
}

func describe(n engagement.Notification) string {
	who := n.Sender.Username
	if who == "" {
		who = n.Sender.ID
	}
	switch n.Kind {
	case engagement.NotificationFollow:
		return who + " started following you"
	case engagement.NotificationAnswer:
		return who + " answered " + questionTitle(n.Question)
	case engagement.NotificationQuestion:
		return who + " asked " + questionTitle(n.Question)
	default:
		return who + " " + string(n.Kind)
	}
}

func questionTitle(q *engagement.QuestionRef) string {
	if q == nil || q.Title == "" {
		return "a question"
	}
	return fmt.Sprintf("%q", q.Title)
}

func printNotification(w io.Writer, n engagement.Notification) {
	mark := "*"
	if n.Read {
		mark = " "
	}
	fmt.Fprintf(w, "%s %s  %s  %s\n", mark, n.ID, n.CreatedAt.Format(time.DateTime), describe(n))
}

func printFeed(w io.Writer, feed engagement.Feed) {
	for _, n := range feed.Items {
		printNotification(w, n)
	}
	fmt.Fprintf(w, "%d unread\n", feed.Unread)
}

func newNotificationsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Fetch the notification feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			if err := eng.Notifications.Poll(cmd.Context()); err != nil {
				return err
			}
			feed := eng.Notifications.Snapshot()
			return opts.formatter(cmd).Success(feed, func(w io.Writer) { printFeed(w, feed) })
		},
	}
}

func newNotificationsWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the feed and print new notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			feeds, stop := eng.WatchNotifications(ctx)
			defer stop()

			out := opts.formatter(cmd)
			seen := make(map[string]bool)
			unread := -1
			for {
				select {
				case <-ctx.Done():
					return nil
				case feed, ok := <-feeds:
					if !ok {
						return nil
					}
					var fresh []engagement.Notification
					for _, n := range feed.Items {
						if !seen[n.ID] {
							seen[n.ID] = true
							fresh = append(fresh, n)
						}
					}
					if len(fresh) == 0 && feed.Unread == unread {
						continue
					}
					unread = feed.Unread
					update := engagement.Feed{Items: fresh, Unread: feed.Unread}
					if err := out.Success(update, func(w io.Writer) { printFeed(w, update) }); err != nil {
						return err
					}
				}
			}
		},
	}
}

func newNotificationsReadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			if err := eng.Notifications.Poll(ctx); err != nil {
				return err
			}
			if err := eng.Notifications.MarkRead(ctx, args[0]); err != nil {
				return err
			}
			unread := eng.Notifications.Unread()
			return opts.formatter(cmd).Success(map[string]any{"id": args[0], "read": true, "unread": unread}, func(w io.Writer) {
				fmt.Fprintf(w, "marked %s read, %d unread\n", args[0], unread)
			})
		},
	}
}

func newNotificationsReadAllCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng := opts.engine(cmd.ErrOrStderr())
			defer eng.Close()

			if err := eng.Notifications.Poll(ctx); err != nil {
				return err
			}
			marked := eng.Notifications.Unread()
			if err := eng.Notifications.MarkAllRead(ctx); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(map[string]any{"read": marked, "unread": 0}, func(w io.Writer) {
				fmt.Fprintf(w, "marked %d notifications read\n", marked)
			})
		},
	}
}
