package main

import (
	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login <phone>",
		Short: "Send a one-time code to your phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.session.RequestCode(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "Code sent. Finish with: khetbook verify %s <code>\n", args[0])
			return nil
		},
	}
}

func newVerifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <phone> <code>",
		Short: "Log in with the code you received",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.session.Login(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printf(cmd, "Logged in.\n")
			return nil
		},
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.session.Logout(); err != nil {
				return err
			}
			printf(cmd, "Logged out.\n")
			return nil
		},
	}
}
