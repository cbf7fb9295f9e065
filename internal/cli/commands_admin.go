package cli

import (
	"context"
	"fmt"

	"github.com/example/ec-storefront/internal/domain/activitylog"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/session"
)

func (s *Shell) registerAdmin() {
	s.commands["admin-orders"] = command{usage: "admin-orders [status]", help: "list all orders", perm: session.ManageOrders, run: s.adminOrders}
	s.commands["order-status"] = command{
		usage:   "order-status <id> <status>",
		help:    "move an order to a new status",
		minArgs: 2,
		perm:    session.ManageOrders,
		run:     s.orderStatus,
	}
	s.commands["users"] = command{usage: "users [role]", help: "list accounts", perm: session.ManageUsers, run: s.users}
	s.commands["logs"] = command{usage: "logs [level]", help: "show the activity log", perm: session.ViewLogs, run: s.logs}
}

func (s *Shell) adminOrders(ctx context.Context, args []string) error {
	var params order.ListParams
	if len(args) > 0 {
		status, err := order.ParseStatus(args[0])
		if err != nil {
			return err
		}
		params.Status = status
	}
	list, page, err := s.svc.Orders.AdminList(ctx, params)
	if err != nil {
		return err
	}
	s.printOrders(list)
	pageFooter(s.out, page)
	return nil
}

func (s *Shell) orderStatus(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status, err := order.ParseStatus(args[1])
	if err != nil {
		return err
	}
	o, err := s.svc.Orders.Transition(ctx, id, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "order #%d is now %s\n", o.ID, o.Status)
	return nil
}

func (s *Shell) users(ctx context.Context, args []string) error {
	role := ""
	if len(args) > 0 {
		role = args[0]
	}
	list, page, err := s.svc.Users.List(ctx, role, 0, 0)
	if err != nil {
		return err
	}
	w := table(s.out)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	pageFooter(s.out, page)
	return nil
}

func (s *Shell) logs(ctx context.Context, args []string) error {
	var params activitylog.Params
	if len(args) > 0 {
		params.Level = args[0]
	}
	list, page, err := s.svc.Logs.List(ctx, params)
	if err != nil {
		return err
	}
	w := table(s.out)
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Level, e.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	pageFooter(s.out, page)
	return nil
}
