package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewChannelCmd creates the channel command group.
func NewChannelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage channels",
	}
	cmd.AddCommand(newChannelCreateCmd(), newChannelListCmd())
	return cmd
}

func newChannelCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <org-id> <name>",
		Short: "Create a channel in an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			var topic *string
			if t, _ := cmd.Flags().GetString("topic"); t != "" {
				topic = &t
			}
			channel, err := sess.Store.CreateChannel(args[0], args[1], topic, sess.Identity.UID)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(channel)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] Created #%s\n", channel.ID, channel.Name)
			return nil
		},
	}
	cmd.Flags().String("topic", "", "channel topic")
	return cmd
}

func newChannelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <org-id>",
		Short: "List channels in an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			channels, err := sess.Store.ListChannels(args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(channels)
			}
			for _, channel := range channels {
				age := "pending"
				if channel.CreatedAt != nil {
					age = humanize.Time(time.UnixMilli(*channel.CreatedAt))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] #%s (%s)\n", channel.ID, channel.Name, age)
			}
			return nil
		},
	}
}
