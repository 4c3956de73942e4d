package main

import (
	"fmt"
	"strings"

	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newRatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Refresh and query exchange rates",
	}

	refresh := &cobra.Command{
		Use:   "refresh [CURRENCY...]",
		Short: "Fetch reference rates now (defaults to currency.tracked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			currencies, err := a.rt.TrackedCurrencies()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				currencies = currencies[:0]
				for _, arg := range args {
					c, err := valueobject.ParseCurrency(arg)
					if err != nil {
						return err
					}
					currencies = append(currencies, c)
				}
			}
			if len(currencies) == 0 {
				return fmt.Errorf("no currencies given and currency.tracked is empty")
			}
			stored, err := a.rt.Converter.RefreshReferenceRates(cmd.Context(), currencies)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d rates against %s\n", stored, a.rt.Converter.Reference())
			return nil
		},
	}

	convert := &cobra.Command{
		Use:     "convert AMOUNT FROM TO",
		Short:   "Convert an amount using the current rate",
		Example: "  posctl rates convert 1250 KES USD",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			from, err := valueobject.ParseCurrency(args[1])
			if err != nil {
				return err
			}
			to, err := valueobject.ParseCurrency(args[2])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rate, err := a.rt.Converter.Resolve(ctx, from, to)
			if err != nil {
				return err
			}
			converted, err := a.rt.Converter.Convert(ctx, amount, from, to)
			if err != nil {
				return err
			}
			shown, err := a.rt.Converter.Format(converted, string(to))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s (rate %s, %s, %s)\n",
				amount.String(), from, shown, rate.Rate.String(), rate.Source,
				rate.EffectiveAt.UTC().Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}

	var limit int
	history := &cobra.Command{
		Use:   "history BASE/TARGET",
		Short: "List stored snapshots for a pair, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawBase, rawTarget, ok := strings.Cut(args[0], "/")
			if !ok {
				return fmt.Errorf("pair must look like USD/KES")
			}
			base, err := valueobject.ParseCurrency(rawBase)
			if err != nil {
				return err
			}
			target, err := valueobject.ParseCurrency(rawTarget)
			if err != nil {
				return err
			}
			rows, err := a.rt.Repos.Rates.History(cmd.Context(), base, target, limit)
			if err != nil {
				return err
			}
			for _, r := range rows {
				active := ""
				if r.IsActive {
					active = " *"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s%s\n",
					r.EffectiveAt.UTC().Format("2006-01-02T15:04:05Z"), r.Rate.String(), r.Source, active)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "Maximum rows")

	cmd.AddCommand(refresh, convert, history)
	return cmd
}
