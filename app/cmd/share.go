package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/share"
)

func shareCmd() *cobra.Command {
	var (
		form     entity.PlanForm
		pageURL  string
		copyLink bool
	)

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Build a link that prefills the planner form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			link, err := share.Encode(pageURL, form)
			if err != nil {
				return err
			}
			msg := share.NewMessage(form.Name, link)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, msg.Title)
			fmt.Fprintln(w, msg.Text)
			fmt.Fprintln(w, msg.URL)
			if copyLink {
				if err := share.Copy(link); err != nil {
					return err
				}
				fmt.Fprintln(w, "Link copied to clipboard!")
			}
			return nil
		},
	}

	addFormFlags(cmd.Flags(), &form)
	cmd.Flags().StringVar(&pageURL, "page-url", "http://localhost:3000/", "page the link opens")
	cmd.Flags().BoolVar(&copyLink, "copy", false, "copy the link to the clipboard")
	return cmd
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [link]",
		Short: "Decode a share link back into form values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := share.Decode(args[0])
			if errors.Is(err, share.ErrNoCity) {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to restore")
				return nil
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(form)
		},
	}
}
