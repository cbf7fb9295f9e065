package cli

import (
	"context"
	"fmt"

	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/session"
)

func (s *Shell) registerOrders() {
	s.commands["orders"] = command{usage: "orders", help: "list your orders", perm: session.ViewOwnOrders, run: s.orders}
	s.commands["order"] = command{usage: "order <id>", help: "show an order with its items", minArgs: 1, perm: session.ViewOwnOrders, run: s.order}
	s.commands["cancel"] = command{usage: "cancel <order-id>", help: "cancel a pending order", minArgs: 1, perm: session.ViewOwnOrders, run: s.cancel}
}

func (s *Shell) orders(ctx context.Context, _ []string) error {
	list, page, err := s.svc.Orders.List(ctx, order.ListParams{})
	if err != nil {
		return err
	}
	s.printOrders(list)
	pageFooter(s.out, page)
	return nil
}

func (s *Shell) printOrders(list []order.Order) {
	w := table(s.out)
	fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tTOTAL\tPLACED")
	for _, o := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", o.ID, o.OrderNumber, o.Status, money(o.TotalAmount), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func (s *Shell) order(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	o, err := s.svc.Orders.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order #%d %s (%s)\n", o.ID, o.OrderNumber, o.Status)
	w := table(s.out)
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %s\tx%d\t%s\n", it.ProductSnapshot.Name, it.Quantity, money(it.TotalPrice))
	}
	fmt.Fprintf(w, "  tax\t\t%s\n", money(o.TaxAmount))
	fmt.Fprintf(w, "  shipping\t\t%s\n", money(o.ShippingAmount))
	fmt.Fprintf(w, "  total\t\t%s\n", money(o.TotalAmount))
	return w.Flush()
}

func (s *Shell) cancel(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := s.svc.Orders.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order #%d cancelled\n", id)
	return nil
}
