package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"amazobank.com/crm/config"
	"amazobank.com/crm/session"
)

var (
	serverURL   string
	sessionFile string
)

var rootCmd = &cobra.Command{
	Use:   "crmctl",
	Short: "CRM CLI - session and user administration client",
	Long: `crmctl keeps a signed-in CRM session on this machine and uses it to
check portal access and administer users through the API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitGlobalConfig(); err != nil {
			return err
		}
		if serverURL == "" {
			serverURL = config.GetConfigWithDefault("API_BASE_URL", "http://localhost:8080")
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openSession opens the configured session storage. --session-file forces
// the file backend.
func openSession(ctx context.Context) (*session.Store, func() error, error) {
	cfg, err := session.LoadBackendConfig()
	if err != nil {
		return nil, nil, err
	}
	if sessionFile != "" {
		cfg.Backend = session.BackendFile
		cfg.File = sessionFile
	}
	storage, closeFn, err := session.OpenStorage(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	return session.NewStore(storage, session.LoadOptions()), closeFn, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "CRM API base URL (default API_BASE_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Session file path (default SESSION_FILE or ~/.crm/session.json)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, guardCmd, usersCmd)
}
