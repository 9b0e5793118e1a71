package main

import (
	"fmt"
	"io"

	errors "github.com/Laisky/errors/v2"
	"github.com/spf13/cobra"

	"github.com/mgomes/emofind/internal/emojiapi"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List emoji groups known to the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		groups, err := env.client.Groups(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "list groups")
		}
		for _, g := range groups {
			fmt.Fprintln(cmd.OutOrStdout(), g)
		}
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group <name>",
	Short: "List the emojis in one group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		emojis, err := env.client.ByGroup(cmd.Context(), args[0])
		if err != nil {
			return errors.Wrapf(err, "list group %q", args[0])
		}
		printEmojis(cmd.OutOrStdout(), emojis)
		return nil
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "List every emoji the service knows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		emojis, err := env.client.All(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "list emojis")
		}
		printEmojis(cmd.OutOrStdout(), emojis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd, groupCmd, allCmd)
}

func printEmojis(w io.Writer, emojis []emojiapi.Emoji) {
	for _, e := range emojis {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Emoji, e.Name, e.Group)
	}
}
