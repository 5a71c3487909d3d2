package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/export"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ocr"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/process/ticketimport"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/spf13/cobra"
)

// openServices opens the database and wires the services. Writes made from
// the CLI drop the server's cached reports when REDIS_ADDR is set.
func (a *app) openServices(ctx context.Context) (*services.Services, func(), error) {
	db, err := prepareDB(ctx, a.cfg, a.log, false)
	if err != nil {
		return nil, nil, err
	}
	c, closeCache := a.reportCache(ctx)
	return services.New(db, c, a.log, a.cfg.ReportCacheTTL), closeCache, nil
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema, seed roles and the admin user, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := prepareDB(cmd.Context(), a.cfg, a.log, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration and seeding completed")
			return nil
		},
	}
}

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage back office users"}

	var role, modules, nome string
	create := &cobra.Command{
		Use:   "create <username> <password>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeCache, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()
			in := services.UserInput{Username: args[0], Senha: args[1], Nome: nome, Role: role}
			for _, m := range strings.Split(modules, ",") {
				if m = strings.TrimSpace(m); m != "" {
					in.Modulos = append(in.Modulos, m)
				}
			}
			u, err := svc.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id=%d, role=%s)\n", u.Username, u.ID, u.Role.Name)
			return nil
		},
	}
	create.Flags().StringVar(&role, "role", models.RoleOperador, "role: administrador, gerente or operador")
	create.Flags().StringVar(&modules, "modules", "", "comma separated modules, e.g. fornecedores,tickets")
	create.Flags().StringVar(&nome, "nome", "", "display name")

	reset := &cobra.Command{
		Use:   "reset-password <username> <password>",
		Short: "Set a new password and revoke the user's sessions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeCache, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()
			if err := svc.Users.ResetPasswordByUsername(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, reset)
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Print or export reports"}

	var from, to, xlsx string
	var fornecedorID uint

	statement := &cobra.Command{
		Use:   "statement",
		Short: "Supplier statement with running balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fornecedorID == 0 {
				return fmt.Errorf("--fornecedor is required")
			}
			p, err := services.ParsePeriod(from, to)
			if err != nil {
				return err
			}
			svc, closeCache, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()
			st, err := svc.Relatorios.Statement(cmd.Context(), fornecedorID, p)
			if err != nil {
				return err
			}
			if xlsx != "" {
				return writeFile(xlsx, func(w io.Writer) error {
					return export.Statement(w, "Extrato "+st.Fornecedor.Nome, st.Statement)
				})
			}
			printStatement(cmd.OutOrStdout(), st)
			return nil
		},
	}
	statement.Flags().UintVar(&fornecedorID, "fornecedor", 0, "supplier id")

	cashflow := &cobra.Command{
		Use:   "cashflow",
		Short: "Daily purchases against payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := services.ParsePeriod(from, to)
			if err != nil {
				return err
			}
			svc, closeCache, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()
			cf, err := svc.Relatorios.CashFlow(cmd.Context(), p)
			if err != nil {
				return err
			}
			if xlsx != "" {
				title := fmt.Sprintf("Fluxo de caixa %s a %s", cf.Periodo.Inicio, cf.Periodo.Fim)
				return writeFile(xlsx, func(w io.Writer) error {
					return export.CashFlow(w, title, cf.CashFlow)
				})
			}
			printCashFlow(cmd.OutOrStdout(), cf.CashFlow)
			return nil
		},
	}

	for _, c := range []*cobra.Command{statement, cashflow} {
		c.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
		c.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
		c.Flags().StringVar(&xlsx, "xlsx", "", "write an xlsx workbook to this file instead of printing")
	}
	cmd.AddCommand(statement, cashflow)
	return cmd
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printStatement(out io.Writer, st *services.Extrato) {
	fmt.Fprintf(out, "Extrato %s (id=%d)\n\n", st.Fornecedor.Nome, st.Fornecedor.ID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATA\tDESCRICAO\tDEBITO\tCREDITO\tSALDO\t")
	fmt.Fprintf(w, "\tSaldo anterior\t\t\t%s\t\n", st.Opening.StringFixed(2))
	for _, e := range st.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", e.Date.Format(services.DateLayout), e.Description,
			e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Balance.StringFixed(2))
	}
	fmt.Fprintf(w, "\tTotais\t%s\t%s\t%s\t\n", st.TotalDebits.StringFixed(2), st.TotalCredits.StringFixed(2), st.Closing.StringFixed(2))
	_ = w.Flush()
}

func printCashFlow(out io.Writer, cf ledger.CashFlow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATA\tCOMPRAS\tPAGAMENTOS\tSALDO DIA\tACUMULADO\t")
	for _, r := range cf.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", r.Date.Format(services.DateLayout), r.Purchases.StringFixed(2),
			r.Payments.StringFixed(2), r.DayBalance.StringFixed(2), r.Accumulated.StringFixed(2))
	}
	fmt.Fprintf(w, "Total\t%s\t%s\t%s\t\t\n", cf.TotalPurchases.StringFixed(2), cf.TotalPayments.StringFixed(2), cf.Balance.StringFixed(2))
	_ = w.Flush()
}

func (a *app) ticketsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tickets", Short: "Scale ticket tools"}

	var opts ticketimport.Options
	var produto string
	var watch bool
	imp := &cobra.Command{
		Use:   "import",
		Short: "Create PENDENTE tickets from scale-ticket photos",
		Long: `Reads every image of --dir with OCR and creates one PENDENTE ticket per
image for the given supplier. Handled files move to processados/ or falhas/.
With --watch the directory keeps being watched for new files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.FornecedorID == 0 {
				return fmt.Errorf("--fornecedor is required")
			}
			if opts.Dir == "" {
				opts.Dir = a.cfg.TicketInbox
			}
			opts.Produto = models.Produto(strings.ToUpper(produto))
			svc, closeCache, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()
			im := ticketimport.New(svc.Tickets, nil, a.log, opts)
			out := cmd.OutOrStdout()
			if watch {
				ctx, stop := signalContext(cmd.Context())
				defer stop()
				return im.Watch(ctx, func(r ticketimport.Result) { printResult(out, r) })
			}
			results, err := im.Run(cmd.Context())
			if err != nil {
				return err
			}
			counts := map[ticketimport.Outcome]int{}
			for _, r := range results {
				printResult(out, r)
				counts[r.Outcome]++
			}
			fmt.Fprintf(out, "%d files: %d created, %d skipped, %d failed, %d dry-run\n", len(results),
				counts[ticketimport.Created], counts[ticketimport.Skipped], counts[ticketimport.Failed], counts[ticketimport.DryRun])
			return nil
		},
	}
	imp.Flags().StringVar(&opts.Dir, "dir", "", "inbox directory (default TICKET_INBOX)")
	imp.Flags().UintVar(&opts.FornecedorID, "fornecedor", 0, "supplier id for the created tickets")
	imp.Flags().StringVar(&produto, "produto", string(models.ProdutoAmendoa), "CACAU_AMENDOA or CACAU_MOLE")
	imp.Flags().IntVar(&opts.Workers, "workers", 0, "OCR workers (default number of CPUs)")
	imp.Flags().BoolVar(&opts.DryRun, "dry-run", false, "read images but create nothing and move nothing")
	imp.Flags().Float64Var(&opts.MinConfidence, "min-confidence", ticketimport.DefaultMinConfidence, "lowest OCR confidence accepted")
	imp.Flags().BoolVar(&watch, "watch", false, "keep watching the directory")

	read := &cobra.Command{
		Use:   "read <image>...",
		Short: "Print the weights OCR reads from scale-ticket images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range args {
				w, err := ocr.ExtractWeightsFromImage(p)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", p, err)
					continue
				}
				fmt.Fprintf(out, "%s: bruto=%s tara=%s liquido=%s confianca=%.2f %s\n", p,
					w.Bruto.StringFixed(2), w.Tara.StringFixed(2), w.Liquido.StringFixed(2), w.Confidence, w.Inferred)
			}
			return nil
		},
	}

	cmd.AddCommand(imp, read)
	return cmd
}

func printResult(out io.Writer, r ticketimport.Result) {
	switch {
	case r.Err != nil:
		fmt.Fprintf(out, "%-8s %s: %v\n", r.Outcome, r.File, r.Err)
	case r.TicketID != 0:
		fmt.Fprintf(out, "%-8s %s -> %s (id=%d, liquido=%s kg)\n", r.Outcome, r.File, r.Numero, r.TicketID, r.Weights.Liquido.StringFixed(2))
	default:
		fmt.Fprintf(out, "%-8s %s -> %s (liquido=%s kg, confianca=%.2f)\n", r.Outcome, r.File, r.Numero, r.Weights.Liquido.StringFixed(2), r.Weights.Confidence)
	}
}
