package cli

import (
	"fmt"
	"os"

	"nova-client/internal/flows/signing"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

func newSignaturesCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "signatures",
		Aliases: []string{"sign"},
		Short:   "Review and sign contract documents",
	}
	cmd.AddCommand(
		newSignaturesListCommand(app),
		newSignaturesSignCommand(app),
		newSignaturesViewCommand(app),
	)
	return cmd
}

func newSignaturesListCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents waiting for your signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			items, err := a.Signing.Load(cmd.Context())
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(items)
			}
			if len(items) == 0 {
				a.Notifier.Info("No documents to sign.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				r := it.Request
				rows = append(rows, []string{
					r.ID,
					r.DocumentID,
					orDash(r.DocumentTitle),
					orDash(r.DocumentNumber),
					it.State.String(),
					dateTime(r.ExpiresAt),
				})
			}
			return a.table([]string{"ID", "DOCUMENT", "TITLE", "NUMBER", "STATE", "EXPIRES"}, rows)
		},
	}
}

func newSignaturesSignCommand(app func() *App) *cobra.Command {
	var form signing.SignForm
	cmd := &cobra.Command{
		Use:   "sign <id>",
		Short: "Sign a document by typing your full name",
		Long:  "Sign a document. By passing --consent you agree to the following:\n\n" + signing.ConsentText,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			// Loading first lets the flow refuse requests that already expired.
			if _, err := a.Signing.Load(ctx); err != nil {
				return notified(err)
			}
			out, err := a.Signing.Sign(ctx, args[0], form)
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(out)
			}
			if out.Redirect == nil {
				return nil
			}

			if err := a.Financing.Refresh(ctx); err != nil {
				return notified(err)
			}
			if dialog, ok := a.Financing.Enter(out.Redirect.Intent); ok {
				fa := dialog.Application
				a.Notifier.Info(fmt.Sprintf("Processing fee of %s is due for %s. Run 'nova financing pay-fee %s'.",
					money(fa.FeeAmount), orDash(fa.ApplicationNumber), fa.ID))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.SignatureText, "name", "", "your full name as signature")
	f.BoolVar(&form.Consent, "consent", false, "agree to the electronic signature consent")
	f.StringVar(&form.SignatureImage, "image", "", "optional signature image as a data URI")
	return cmd
}

func newSignaturesViewCommand(app func() *App) *cobra.Command {
	var (
		dir  string
		open bool
	)
	cmd := &cobra.Command{
		Use:   "view <document-id>",
		Short: "Download a contract to read it before signing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if dir == "" {
				dir = os.TempDir()
			}
			path, err := a.Signing.ViewContract(cmd.Context(), args[0], dir)
			if err != nil {
				return notified(err)
			}
			fmt.Fprintln(a.Out, path)
			if open {
				if err := browser.OpenFile(path); err != nil {
					a.Log.Warn("failed to open document", map[string]interface{}{"error": err})
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to save the document in (default: the temp dir)")
	cmd.Flags().BoolVar(&open, "open", false, "open the document with the default viewer")
	return cmd
}
