package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewOrgCmd creates the org command group.
func NewOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations",
	}
	cmd.AddCommand(newOrgCreateCmd(), newOrgListCmd(), newOrgInviteCmd())
	return cmd
}

func newOrgCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			org, err := sess.Store.CreateOrganization(args[0], sess.Identity.UID)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(org)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] Created organization %s\n", org.ID, org.Name)
			return nil
		},
	}
}

func newOrgListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			orgs, err := sess.Store.ListOrganizations(sess.Identity.UID)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(orgs)
			}
			for _, org := range orgs {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%d members)\n", org.ID, org.Name, len(org.Members))
			}
			if len(orgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No organizations. Create one with 'loft org create <name>'")
			}
			return nil
		},
	}
}

func newOrgInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <org-id> <uid>",
		Short: "Add a member to an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer sess.Close()

			if err := sess.Store.AddMember(args[0], args[1]); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", args[1], args[0])
			return nil
		},
	}
}
