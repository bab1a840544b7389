package cli

import (
	"fmt"
	"os"
	"strings"

	"nova-client/internal/backend"
	"nova-client/internal/common/validation"

	"github.com/spf13/cobra"
)

func newDocumentsCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Contracts, receipts and statements issued to you",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			docs, err := a.API.ListDocuments(cmd.Context())
			if err != nil {
				return failed(err, "Failed to load documents", a.Err)
			}
			if a.JSON {
				return a.printJSON(docs)
			}
			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{d.ID, d.DocumentType, orDash(d.DocumentNumber), orDash(d.Title), yesNo(d.IsSigned), date(d.CreatedAt)})
			}
			return a.table([]string{"ID", "TYPE", "NUMBER", "TITLE", "SIGNED", "CREATED"}, rows)
		},
	}

	var dir string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a document to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			path, err := a.Signing.ViewContract(cmd.Context(), args[0], dir)
			if err != nil {
				return notified(err)
			}
			fmt.Fprintln(a.Out, path)
			return nil
		},
	}
	download.Flags().StringVar(&dir, "dir", "", "target directory (default: the current directory)")

	verify := &cobra.Command{
		Use:   "verify <code>",
		Short: "Check a document's verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v, err := a.API.VerifyDocument(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return failed(err, "Document could not be verified", a.Err)
			}
			if a.JSON {
				return a.printJSON(v)
			}
			if !v.Verified {
				return reported(fmt.Errorf("document could not be verified"), a.Err)
			}
			return a.fields(
				"Verified", yesNo(v.Verified),
				"Number", orDash(v.DocumentNumber),
				"Type", orDash(v.DocumentType),
				"Title", orDash(v.Title),
				"Issued to", orDash(v.IssuedTo),
				"Issued at", orDash(v.IssuedAt),
				"Signed", yesNo(v.IsSigned),
			)
		},
	}

	cmd.AddCommand(list, download, verify)
	return cmd
}

func newRequestsCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Service requests such as deferrals and settlements",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your service requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			reqs, err := a.API.ListRequests(cmd.Context())
			if err != nil {
				return failed(err, "Failed to load requests", a.Err)
			}
			if a.JSON {
				return a.printJSON(reqs)
			}
			rows := make([][]string, 0, len(reqs))
			for _, r := range reqs {
				financing := "-"
				if r.FinancingApplicationNumber != nil {
					financing = *r.FinancingApplicationNumber
				}
				rows = append(rows, []string{r.ID, r.RequestType, r.Subject, financing, r.Status, date(r.CreatedAt)})
			}
			return a.table([]string{"ID", "TYPE", "SUBJECT", "FINANCING", "STATUS", "CREATED"}, rows)
		},
	}

	var (
		req         backend.CreateServiceRequest
		financingID string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a new service request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if financingID != "" {
				req.FinancingID = &financingID
			}
			if err := validation.ServiceRequestSchema.Check(req); err != nil {
				return reported(err, a.Err)
			}
			created, err := a.API.CreateRequest(cmd.Context(), req)
			if err != nil {
				return failed(err, "Failed to create request", a.Err)
			}
			if a.JSON {
				return a.printJSON(created)
			}
			a.Notifier.Success(fmt.Sprintf("Request %s created.", created.ID))
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&req.RequestType, "type", "", "loan_increase, settlement, transfer or deferral")
	f.StringVar(&req.Subject, "subject", "", "short subject line")
	f.StringVar(&req.Description, "description", "", "what you are asking for")
	f.StringVar(&financingID, "financing", "", "related financing application id")
	for _, name := range []string{"type", "subject", "description"} {
		_ = create.MarkFlagRequired(name)
	}

	cmd.AddCommand(list, create)
	return cmd
}
