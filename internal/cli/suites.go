package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/omniture/internal/output"
	"github.com/wesleyorama2/omniture/pkg/omniture"
)

func newSuitesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List the report suites of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter()
			if err != nil {
				return err
			}

			account, err := a.connect(cmd.Context(), nil)
			if err != nil {
				return err
			}

			suites, err := account.Suites()
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatList(output.NewListData(suites)))
			return nil
		},
	}
}

// metadataKind is one of the per-suite metadata listings
type metadataKind struct {
	name  string
	short string
	list  func(*omniture.Suite, context.Context) (*omniture.Collection[*omniture.Value], error)
}

var metadataKinds = []metadataKind{
	{"metrics", "List the metrics available in a report suite", (*omniture.Suite).Metrics},
	{"elements", "List the elements available in a report suite", (*omniture.Suite).Elements},
	{"evars", "List the conversion variables of a report suite", (*omniture.Suite).EVars},
	{"segments", "List the segments of a report suite", (*omniture.Suite).Segments},
}

func newMetadataCmd(a *app, kind metadataKind) *cobra.Command {
	return &cobra.Command{
		Use:   kind.name + " SUITE",
		Short: kind.short,
		Long:  kind.short + ". SUITE is a report suite id or site title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			account, err := a.connect(ctx, nil)
			if err != nil {
				return err
			}

			suite, err := account.Suite(args[0])
			if err != nil {
				return err
			}

			list, err := kind.list(suite, ctx)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatList(output.NewListData(list)))
			return nil
		},
	}
}
