package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionJSON bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Request one chat session and print it",
	Long: `Issue a single initiation request and print the session descriptor.
No connection is opened, so the websocket token stays unused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newSessionClient()
		if err != nil {
			return err
		}

		session, err := client.FetchSession(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch session: %w", err)
		}

		out := cmd.OutOrStdout()
		if sessionJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(session)
		}

		st := newStyles(out)
		fmt.Fprintln(out, st.header.Render("Session "+session.SessionID))
		fmt.Fprintln(out, st.meta.Render("websocket  "+session.WebsocketURL))
		fmt.Fprintln(out, st.meta.Render(fmt.Sprintf("expires    %s (in %ds)",
			session.ExpiresAt().Local().Format(time.RFC3339), session.ExpiresIn)))
		return nil
	},
}

func init() {
	sessionCmd.Flags().BoolVar(&sessionJSON, "json", false, "Print the session as JSON")
}
