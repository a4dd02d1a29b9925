package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loftchat/loft/internal/session"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
	return err
}

func sessionOptions(cmd *cobra.Command) session.Options {
	configDir, _ := cmd.Flags().GetString("config-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return session.Options{ConfigDir: configDir, DataDir: dataDir}
}

// openSession opens the signed-in session. Callers own Close.
func openSession(cmd *cobra.Command) (*session.Session, error) {
	return session.Open(sessionOptions(cmd))
}

func jsonMode(cmd *cobra.Command) bool {
	json, _ := cmd.Flags().GetBool("json")
	return json
}
