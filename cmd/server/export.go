package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apppayment "github.com/rcarvalho-pb/payment_notifier-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/config"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/export"
)

func exportCmd(envFile *string) *cobra.Command {
	var period, value, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the approved payments of a day, month or year to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			var buf bytes.Buffer
			svc := &apppayment.Service{Repo: st.Payments, Workbooks: export.Workbook{}}
			name, err := svc.Export(cmd.Context(), &buf, period, value)
			if err != nil {
				return err
			}

			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "dia", "period kind (dia, mes, anio)")
	cmd.Flags().StringVar(&value, "value", "", "period value, e.g. 2026-03-15, 2026-03 or 2026")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to ventas_<period>_<value>.xlsx)")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}
