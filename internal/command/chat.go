package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loftchat/loft/internal/chat"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode(cmd) {
				return writeCommandError(cmd, fmt.Errorf("--json not supported for interactive chat"))
			}
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			notify, _ := cmd.Flags().GetBool("notify")
			return chat.Run(chat.Options{Session: sess, Notify: notify})
		},
	}
	cmd.Flags().Bool("notify", true, "desktop notifications for mentions")
	return cmd
}
