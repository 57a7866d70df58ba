package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/session"
)

var portal string

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Check whether the session may open a portal view",
	Long: `Runs the route guard for a view of the given portal and prints either
"allow" or the path the dashboard would redirect to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, ok := auth.ParseRequirement(portal)
		if !ok {
			return fmt.Errorf("unknown portal %q (want admin, agent or none)", portal)
		}
		store, closeFn, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		guard := session.NewGuard(store, req)
		nav := session.NavigatorFunc(func(_ context.Context, path string) error {
			_, err := fmt.Fprintf(out, "redirect %s\n", path)
			return err
		})
		if guard.Run(cmd.Context(), nav) {
			fmt.Fprintln(out, "allow")
		}
		return nil
	},
}

func init() {
	guardCmd.Flags().StringVar(&portal, "portal", "none", "Portal the view belongs to: admin, agent or none")
}
