package command

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loftchat/loft/internal/session"
	"github.com/loftchat/loft/internal/types"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and record your local identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			if name == "" {
				name = promptLine("Display name: ")
			}
			if name == "" {
				return writeCommandError(cmd, fmt.Errorf("display name is required"))
			}
			if email == "" {
				email = promptLine("Email: ")
			}

			profile := types.Profile{
				UID:         "u-" + uuid.NewString(),
				DisplayName: name,
				Email:       email,
			}
			if err := session.SignIn(sessionOptions(cmd), profile); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", profile.DisplayName, profile.UID)
			return nil
		},
	}

	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("email", "", "email address")
	return cmd
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear persisted selection state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := sess.SignOut(); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(sess.Identity)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n",
				sess.Identity.DisplayName, sess.Identity.Email, sess.Identity.UID)
			return nil
		},
	}
}

// NewAvatarCmd creates the avatar command.
func NewAvatarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <image-file>",
		Short: "Set your avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			if err := sess.SetAvatar(args[0]); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Avatar updated")
			return nil
		},
	}
}

func promptLine(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stdout, prompt)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}
