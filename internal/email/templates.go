package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(c Confirmation) string {
	var itemsHTML strings.Builder
	for _, item := range c.Items {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Product #%d", item.ProductID)
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			formatMoney(item.UnitPrice, c.Currency),
			formatMoney(item.Total, c.Currency),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #2f4858; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">We have received your order and will let you know when it ships.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<table style="width: 100%%; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<tr><td>Subtotal</td><td style="text-align: right;">%s</td></tr>
			<tr><td>Tax</td><td style="text-align: right;">%s</td></tr>
			<tr><td>Shipping</td><td style="text-align: right;">%s</td></tr>
			<tr><td style="font-weight: bold;">Total</td><td style="text-align: right; font-size: 20px; font-weight: bold;">%s</td></tr>
		</table>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This message was sent automatically. Please contact support if you have any questions.
		</p>
	</div>
</body>
</html>`,
		html.EscapeString(c.OrderNumber),
		itemsHTML.String(),
		formatMoney(c.Subtotal, c.Currency),
		formatMoney(c.Tax, c.Currency),
		formatMoney(c.Shipping, c.Currency),
		formatMoney(c.Total, c.Currency),
	)
}

// formatMoney renders an amount with two decimals and thousands separators.
func formatMoney(d decimal.Decimal, currency string) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		grouped.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if grouped.Len() > 0 {
			grouped.WriteString(",")
		}
		grouped.WriteString(whole[i : i+3])
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	symbol := currency + " "
	if currency == "USD" {
		symbol = "$"
	}
	return sign + symbol + grouped.String() + "." + frac
}
