package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrNoPrinter = errors.New("no printer connected")

// Printer prints a receipt for a sale. A failed print never undoes the
// sale.
type Printer interface {
	Print(ctx context.Context, sale models.Sale) error
}

// ReceiptWidth is the character width of a 58mm thermal roll.
const ReceiptWidth = 32

var rule = strings.Repeat("-", ReceiptWidth)

// FormatReceipt lays a sale out as plain text lines for a narrow printer.
// currency must be printable by the device; "P" stands in for "₱".
func FormatReceipt(shop string, sale models.Sale, currency string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	date := sale.Date.In(loc)
	money := func(d decimal.Decimal) string { return currency + d.StringFixed(2) }

	var b strings.Builder
	center := func(s string) {
		if pad := (ReceiptWidth - len([]rune(s))) / 2; pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(s + "\n")
	}

	center(strings.ToUpper(shop))
	center("Thank You for Your Order!")
	b.WriteString("\n")
	center("Order " + string(sale.ID))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Date: %s\n", date.Format("1/2/2006"))
	fmt.Fprintf(&b, "Time: %s\n", date.Format("3:04:05 PM"))
	fmt.Fprintf(&b, "Type: %s\n", sale.OrderType)
	fmt.Fprintf(&b, "Payment: %s\n", sale.PaymentMethod)
	b.WriteString(rule + "\n")

	for _, item := range sale.Items {
		b.WriteString(item.Name + "\n")
		left := fmt.Sprintf("%d x %s", item.Quantity, money(item.Price))
		right := money(item.LineTotal())
		gap := ReceiptWidth - len([]rune(left)) - len([]rune(right))
		if gap < 1 {
			gap = 1
		}
		b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")
		for _, addon := range item.Addons {
			b.WriteString("  + " + addon.Name)
			if addon.Quantity > 1 {
				fmt.Fprintf(&b, " (%dx)", addon.Quantity)
			}
			b.WriteString(" +" + currency + addon.Price.Mul(decimal.NewFromInt(int64(addon.Quantity))).StringFixed(2) + "\n")
		}
	}
	b.WriteString(rule + "\n")
	b.WriteString("TOTAL: " + money(sale.Total) + "\n\n")
	center("Visit us again soon!")
	return b.String()
}

// LogPrinter writes receipts to the log. It stands in when no receipt
// printer is attached to the host.
type LogPrinter struct {
	Shop     string
	Currency string
	Location *time.Location
}

func (p LogPrinter) Print(_ context.Context, sale models.Sale) error {
	currency := p.Currency
	if currency == "" || currency == "₱" {
		currency = "P"
	}
	log.WithField("sale_id", sale.ID).Info("receipt\n" + FormatReceipt(p.Shop, sale, currency, p.Location))
	return nil
}
