// Package command wires the loft CLI.
package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "loft"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Loft - realtime team chat in your terminal",
		Long:          "Loft is a realtime team chat client: organizations, channels, mentions, attachments.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config-dir", "", "override config directory")
	cmd.PersistentFlags().String("data-dir", "", "override data directory")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewLoginCmd(),
		NewLogoutCmd(),
		NewWhoamiCmd(),
		NewOrgCmd(),
		NewChannelCmd(),
		NewSendCmd(),
		NewAttachCmd(),
		NewChatCmd(),
		NewAvatarCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
