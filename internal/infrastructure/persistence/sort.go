package persistence

import (
	"strings"

	"github.com/invoicer/backend/internal/domain/invoice"
	"gorm.io/gorm/clause"
)

// invoiceSortColumns whitelists the sortable invoice fields. Anything else
// falls back to the invoice date, so raw input never reaches ORDER BY.
var invoiceSortColumns = map[string]string{
	invoice.SortByInvoiceDate: "invoices.invoice_date",
	invoice.SortByTotal:       "invoices.total",
	invoice.SortByNumber:      "invoices.number",
	invoice.SortByClientName:  "clients.name",
}

// invoiceOrder builds the ORDER BY for an invoice listing. The number is the
// tie breaker so pages stay stable within a day. join reports whether the
// clients table must be joined.
func invoiceOrder(field, dir string) (order clause.OrderBy, join bool) {
	column, ok := invoiceSortColumns[strings.TrimSpace(field)]
	if !ok {
		field, column = invoice.SortByInvoiceDate, invoiceSortColumns[invoice.SortByInvoiceDate]
	}
	desc := !strings.EqualFold(strings.TrimSpace(dir), "asc")

	order.Columns = []clause.OrderByColumn{
		{Column: clause.Column{Name: column, Raw: true}, Desc: desc},
	}
	if column != invoiceSortColumns[invoice.SortByNumber] {
		order.Columns = append(order.Columns, clause.OrderByColumn{
			Column: clause.Column{Name: "invoices.number", Raw: true}, Desc: desc,
		})
	}
	return order, strings.TrimSpace(field) == invoice.SortByClientName
}
