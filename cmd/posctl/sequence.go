package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/spf13/cobra"
)

func newSequenceCmd(a *app) *cobra.Command {
	var tenantRef, kindFlag string

	cmd := &cobra.Command{
		Use:     "sequence",
		Aliases: []string{"seq"},
		Short:   "Inspect and repair per-tenant sequence counters",
	}
	cmd.PersistentFlags().StringVar(&tenantRef, "tenant", "", "Tenant id or code")
	cmd.PersistentFlags().StringVar(&kindFlag, "kind", "", "Entity kind (sale, refund, product, inventory, expense); all when empty")

	kinds := func() ([]sequence.EntityKind, error) {
		if kindFlag == "" {
			return sequence.KnownKinds, nil
		}
		k, err := sequence.ParseKind(kindFlag)
		if err != nil {
			return nil, err
		}
		return []sequence.EntityKind{k}, nil
	}

	current := &cobra.Command{
		Use:   "current",
		Short: "Show the last issued number without consuming one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenant, err := a.tenant(ctx, tenantRef)
			if err != nil {
				return err
			}
			ks, err := kinds()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tLAST")
			for _, k := range ks {
				n, err := a.rt.Allocator.CurrentNumber(ctx, tenant.ID, k)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\n", k, n)
			}
			return w.Flush()
		},
	}

	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create missing counters for every kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenant, err := a.tenant(ctx, tenantRef)
			if err != nil {
				return err
			}
			if err := a.rt.Allocator.EnsureCountersExist(ctx, tenant.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "counters ready for %s\n", tenant.Code)
			return nil
		},
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Raise counters to the highest number already stored",
		Long: `sync raises each counter to the highest number found on its records.
Use it after imports or restores. Counters are never lowered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenant, err := a.tenant(ctx, tenantRef)
			if err != nil {
				return err
			}
			ks, err := kinds()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tLAST")
			for _, k := range ks {
				n, err := a.rt.Allocator.SyncWithData(ctx, tenant.ID, k)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\n", k, n)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(current, ensure, sync)
	return cmd
}
