package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"nova-client/internal/stores/notifications"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newNotificationsCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read your notifications",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			a.Notifications.FetchNotifications(cmd.Context())
			items := a.Notifications.Notifications()
			if a.JSON {
				return a.printJSON(items)
			}
			if len(items) == 0 {
				a.Notifier.Info("No notifications.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, n := range items {
				unread := ""
				if !n.IsRead {
					unread = "*"
				}
				rows = append(rows, []string{unread, n.ID, n.Category, n.Title, dateTime(&n.CreatedAt)})
			}
			return a.table([]string{"", "ID", "TYPE", "TITLE", "RECEIVED"}, rows)
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the number of unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			a.Notifications.FetchUnreadCount(cmd.Context())
			n := a.Notifications.UnreadCount()
			if a.JSON {
				return a.printJSON(map[string]int{"count": n})
			}
			fmt.Fprintln(a.Out, n)
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			a.Notifications.FetchNotifications(ctx)
			a.Notifications.MarkAsRead(ctx, args[0])
			fmt.Fprintf(a.Out, "%d unread\n", a.Notifications.UnreadCount())
			return nil
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			a.Notifications.MarkAllAsRead(cmd.Context())
			a.Notifier.Success("All notifications marked as read.")
			return nil
		},
	}

	cmd.AddCommand(list, count, read, readAll, newNotificationsWatchCommand(app))
	return cmd
}

func newNotificationsWatchCommand(app func() *App) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the unread count whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()
			if schedule == "" {
				schedule = a.Config.Notifications.PollSchedule
			}

			poller, err := notifications.NewPoller(a.Notifications, schedule, a.Log, func(n int) {
				fmt.Fprintf(a.Out, "%s  %d unread\n", time.Now().Format(time.TimeOnly), n)
			})
			if err != nil {
				return reported(err, a.Err)
			}

			if a.Config.Metrics.Enabled {
				srv := &http.Server{Addr: a.Config.Metrics.Address, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.Log.Error("metrics server failed", map[string]interface{}{"error": err})
					}
				}()
				defer srv.Close()
			}

			poller.Start(ctx)
			<-ctx.Done()
			poller.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron spec or descriptor (default: notifications.poll_schedule)")
	return cmd
}
