package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/ec-storefront/internal/checkout"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/session"
)

func (s *Shell) registerCart() {
	s.commands["add"] = command{usage: "add <product-id> [qty]", help: "put a product in the cart", minArgs: 1, run: s.add}
	s.commands["remove"] = command{usage: "remove <product-id>", help: "drop a cart line", minArgs: 1, run: s.remove}
	s.commands["qty"] = command{usage: "qty <product-id> <n>", help: "set a line quantity (0 removes)", minArgs: 2, run: s.setQuantity}
	s.commands["cart"] = command{usage: "cart", help: "show the cart and its totals", run: s.showCart}
	s.commands["clear"] = command{usage: "clear", help: "empty the cart", run: s.clear}
	s.commands["address"] = command{
		usage:   "address <name>|<line1>|<city>|<postal code>|<country>",
		help:    "set the shipping address",
		minArgs: 1,
		run:     s.setAddress,
	}
	s.commands["checkout"] = command{
		usage: "checkout [payment-method]",
		help:  "place an order for the cart",
		perm:  session.PlaceOrders,
		run:   s.placeOrder,
	}
}

func (s *Shell) add(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = parseInt(args[1]); err != nil {
			return err
		}
	}
	p, err := s.svc.Products.Get(ctx, id)
	if err != nil {
		return err
	}
	state := s.cart.AddItem(*p, qty)
	fmt.Fprintf(s.out, "%s added, %d items in cart\n", p.Name, state.TotalItems)
	return nil
}

func (s *Shell) remove(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	s.cart.RemoveItem(id)
	return s.showCart(ctx, nil)
}

func (s *Shell) setQuantity(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := parseInt(args[1])
	if err != nil {
		return err
	}
	s.cart.UpdateQuantity(id, n)
	return s.showCart(ctx, nil)
}

func (s *Shell) clear(context.Context, []string) error {
	s.cart.Clear()
	fmt.Fprintln(s.out, "cart cleared")
	return nil
}

func (s *Shell) showCart(context.Context, []string) error {
	state := s.cart.Snapshot()
	if len(state.Items) == 0 {
		fmt.Fprintln(s.out, "cart is empty")
		return nil
	}

	w := table(s.out)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, line := range state.Items {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", line.Product.ID, line.Product.Name, line.Quantity,
			money(line.Product.Price), money(line.Subtotal()))
	}
	q := checkout.Quote(state)
	fmt.Fprintf(w, "\t\t\tsubtotal\t%s\n", money(q.Subtotal))
	fmt.Fprintf(w, "\t\t\ttax\t%s\n", money(q.Tax))
	fmt.Fprintf(w, "\t\t\tshipping\t%s\n", money(q.Shipping))
	fmt.Fprintf(w, "\t\t\ttotal\t%s\n", money(q.Total))
	if err := w.Flush(); err != nil {
		return err
	}
	for _, line := range s.cart.OverStock() {
		fmt.Fprintf(s.out, "warning: only %d of %s in stock\n", line.Product.Stock, line.Product.Name)
	}
	return nil
}

func (s *Shell) setAddress(_ context.Context, args []string) error {
	parts := strings.Split(strings.Join(args, " "), "|")
	if len(parts) != 5 {
		return fmt.Errorf("%w: %s", ErrUsage, s.commands["address"].usage)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	s.address = &order.Address{
		FullName:   parts[0],
		Line1:      parts[1],
		City:       parts[2],
		PostalCode: parts[3],
		Country:    parts[4],
	}
	fmt.Fprintf(s.out, "shipping to %s, %s\n", s.address.FullName, s.address.City)
	return nil
}

func (s *Shell) placeOrder(ctx context.Context, args []string) error {
	in := checkout.Input{ShippingAddress: s.address}
	if len(args) > 0 {
		in.PaymentMethod = args[0]
	}
	if u := s.currentUser(); u != nil {
		in.CustomerEmail = u.Email
	}

	id, err := s.checkout.Checkout(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order #%d placed\n", id)
	return nil
}
