// cmd/inspect.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/testlab/internal/browser/htmldoc"
	"github.com/xkilldash9x/testlab/internal/pageobject"
)

func newInspectCmd(a *app) *cobra.Command {
	var opts queryOptions
	var showHTML bool

	cmd := &cobra.Command{
		Use:   "inspect <file|url>",
		Short: "Resolve a locator against a static document without a browser",
		Long: `inspect parses a local file or a fetched page and resolves the locator
against the markup as served. Scripts do not run and nothing is rendered, so
screenshots are unavailable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := opts.locator()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := a.logger().Named("inspect")
			session := htmldoc.NewSession(a.cfg, logger)
			defer session.Close(ctx)

			if err := session.Navigate(ctx, args[0]); err != nil {
				return err
			}
			sink, err := newSink(a.cfg.Report(), logger)
			if err != nil {
				return err
			}
			page := pageobject.NewPage(session,
				pageobject.WithURL(args[0]),
				pageobject.WithTimeouts(pageobject.TimeoutsFromConfig(a.cfg.Waits())),
				pageobject.WithSink(sink),
				pageobject.WithLogger(logger),
			)

			out := cmd.OutOrStdout()
			if err := runQuery(ctx, page, opts, a.cfg.Report().Screenshots, out); err != nil {
				return err
			}
			if !showHTML || opts.table {
				return nil
			}

			matches, err := pageobject.NewElements("Matches", loc, pageobject.AsElement).Find(ctx, page)
			if err != nil {
				return err
			}
			for _, el := range matches.Items() {
				node, err := el.Node()
				if err != nil {
					return err
				}
				if doc, ok := node.(*htmldoc.Node); ok {
					fmt.Fprintln(out, doc.OuterHTML())
				}
			}
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&showHTML, "html", false, "print the outer HTML of every match")
	return cmd
}
