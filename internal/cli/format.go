package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
)

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", ErrUsage, s)
	}
	return id, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrUsage, s)
	}
	return n, nil
}

func pageFooter(out io.Writer, p *httpclient.Pagination) {
	if p == nil {
		return
	}
	fmt.Fprintf(out, "page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
}
