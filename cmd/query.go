// cmd/query.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/pageobject"
	"github.com/xkilldash9x/testlab/internal/pageobject/elements"
	"github.com/xkilldash9x/testlab/internal/report"
)

// queryOptions are the lookup flags shared by probe and inspect.
type queryOptions struct {
	css        string
	xpath      string
	table      bool
	screenshot bool
	wait       time.Duration
}

func (o *queryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.css, "css", "", "CSS selector to look up")
	cmd.Flags().StringVar(&o.xpath, "xpath", "", "XPath expression to look up")
	cmd.Flags().BoolVar(&o.table, "table", false, "read the first match as a table")
	cmd.Flags().BoolVar(&o.screenshot, "screenshot", false, "capture the first match")
	cmd.Flags().DurationVar(&o.wait, "wait", 0, "wait up to this long for a first match")
}

func (o *queryOptions) locator() (driver.Locator, error) {
	switch {
	case o.css != "" && o.xpath != "":
		return driver.Locator{}, errors.New("use either --css or --xpath, not both")
	case o.css != "":
		return driver.CSS(o.css), nil
	case o.xpath != "":
		return driver.XPath(o.xpath), nil
	default:
		return driver.Locator{}, errors.New("one of --css or --xpath is required")
	}
}

// newSink logs every step and, when a results directory is configured,
// writes result files there too.
func newSink(cfg config.ReportConfig, logger *zap.Logger) (report.Sink, error) {
	logSink := report.NewLogSink(logger)
	if cfg.ResultsDir == "" {
		return logSink, nil
	}
	results, err := report.NewResultsSink(cfg.ResultsDir, logger)
	if err != nil {
		return nil, err
	}
	return report.Multi(logSink, results), nil
}

// runQuery resolves the locator on page and writes what it found to w.
func runQuery(ctx context.Context, page *pageobject.Page, o queryOptions, captures bool, w io.Writer) (err error) {
	loc, err := o.locator()
	if err != nil {
		return err
	}
	end := page.Step(ctx, fmt.Sprintf("Query %s on %s", loc, page.URL()))
	defer func() { end(err) }()

	if o.table {
		return writeTable(ctx, page, loc, w)
	}

	matches := pageobject.NewElements("Matches", loc, pageobject.AsElement)
	var list pageobject.Collection[*pageobject.Element]
	if o.wait > 0 {
		list, err = matches.WaitNotEmpty(ctx, page, o.wait)
	} else {
		list, err = matches.Find(ctx, page)
	}
	if err != nil {
		return err
	}

	texts, err := list.Texts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d match(es)\n", loc, list.Len())
	for i, text := range texts {
		fmt.Fprintf(w, "  [%d] %s\n", i, text)
	}

	if o.screenshot && list.Len() > 0 {
		if !captures {
			return errors.New("screenshots are disabled (report.screenshots)")
		}
		capture, err := list.At(0).Screenshot(ctx)
		if err != nil {
			return err
		}
		if err := page.Attach(ctx, capture); err != nil {
			return err
		}
		fmt.Fprintf(w, "captured %q (%d bytes)\n", capture.Name, len(capture.PNG))
	}
	return nil
}

func writeTable(ctx context.Context, page *pageobject.Page, loc driver.Locator, w io.Writer) error {
	table, err := pageobject.NewElement("Table", loc, elements.NewTable).Find(ctx, page)
	if err != nil {
		return err
	}
	header, err := table.Header(ctx).Values(ctx)
	if err != nil && !errors.Is(err, pageobject.ErrAbsent) {
		return err
	}
	rows, err := table.Values(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d row(s)\n", loc, len(rows))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(header) > 0 {
		fmt.Fprintln(tw, strings.Join(header, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
