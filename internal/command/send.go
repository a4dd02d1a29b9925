package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loftchat/loft/internal/blob"
	"github.com/loftchat/loft/internal/sanitize"
	"github.com/loftchat/loft/internal/types"
)

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <channel-id> <text>",
		Short: "Send a message to a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			clean := sanitize.Sanitize(args[1])
			if clean == "" {
				return writeCommandError(cmd, fmt.Errorf("message is empty after sanitizing"))
			}
			msg, err := sess.Store.CreateMessage(types.Message{
				ChannelID:       args[0],
				Text:            clean,
				Author:          sess.Identity.DisplayName,
				AuthorAvatarURL: sess.Identity.AvatarURL,
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] Sent\n", msg.ID)
			return nil
		},
	}
}

// NewAttachCmd creates the attach command.
func NewAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <channel-id> <file>...",
		Short: "Send files to a channel",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			text, _ := cmd.Flags().GetString("message")
			attachments := make([]types.Attachment, 0, len(args)-1)
			var uploaded []string
			for _, path := range args[1:] {
				att, ref, err := uploadAttachment(sess.Blobs, path)
				if err != nil {
					// Roll back blobs already uploaded for this message.
					sess.Blobs.DeleteBestEffort(uploaded...)
					return writeCommandError(cmd, err)
				}
				attachments = append(attachments, att)
				uploaded = append(uploaded, ref)
			}

			msg, err := sess.Store.CreateMessage(types.Message{
				ChannelID:       args[0],
				Text:            sanitize.Sanitize(text),
				Author:          sess.Identity.DisplayName,
				AuthorAvatarURL: sess.Identity.AvatarURL,
				Attachments:     attachments,
			})
			if err != nil {
				sess.Blobs.DeleteBestEffort(uploaded...)
				return writeCommandError(cmd, err)
			}

			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(msg)
			}
			for _, att := range attachments {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", att.Name, blob.FormatSize(att.Size))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] Sent %d attachment(s)\n", msg.ID, len(attachments))
			return nil
		},
	}
	cmd.Flags().StringP("message", "m", "", "message text to send with the files")
	return cmd
}

func uploadAttachment(blobs *blob.Store, path string) (types.Attachment, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Attachment{}, "", err
	}
	defer f.Close()

	name := filepath.Base(path)
	ref, size, err := blobs.Upload(name, f)
	if err != nil {
		return types.Attachment{}, "", err
	}
	return blobs.BuildAttachment(name, size, ref), ref, nil
}
