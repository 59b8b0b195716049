package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pirouette/studio/internal/app"
	"github.com/pirouette/studio/internal/app/maintenance"
)

func (c *cli) sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}
	cmd.AddCommand(c.sessionsCleanupCmd())
	return cmd
}

func (c *cli) sessionsCleanupCmd() *cobra.Command {
	var withAudit bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deactivate expired sessions and purge old inactive ones",
		Long: `Runs the same sweep as POST /auth/sessions/cleanup: expired sessions are
deactivated, then inactive sessions past the retention window are deleted.

With --audit the audit log retention (auth.audit_retention_days) is enforced
in the same run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStack(func(cfg *app.Config, stack *app.AuthStack) error {
				ctx := cmd.Context()
				if !withAudit {
					stats, err := stack.Lifecycle.Cleanup(ctx, time.Now().UTC())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "expired sessions: %d\ndeleted sessions: %d\n", stats.Expired, stats.Deleted)
					return nil
				}

				cleaner := maintenance.NewCleaner(stack.Lifecycle, stack.Audit,
					maintenance.WithAuditRetentionDays(cfg.Auth.AuditRetentionDays))
				if err := cleaner.RunOnce(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "session and audit cleanup completed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withAudit, "audit", false, "also enforce audit log retention")
	return cmd
}
