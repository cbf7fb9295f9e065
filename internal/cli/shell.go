package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/checkout"
	"github.com/example/ec-storefront/internal/domain/activitylog"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/category"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/session"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/logger"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrForbidden      = errors.New("not allowed for the current session")
	errQuit           = errors.New("quit")
)

// Services bundles the resource APIs the shell talks to.
type Services struct {
	Products   *product.Service
	Categories *category.Service
	Orders     *order.Service
	Reviews    *review.Service
	Users      *user.Service
	Logs       *activitylog.Service
}

type command struct {
	usage   string
	help    string
	minArgs int
	// perm, when set, must be granted by the session.
	perm session.Permission
	run  func(ctx context.Context, args []string) error
}

// Shell maps text commands onto the storefront packages. The cart lives as
// long as the Shell.
type Shell struct {
	svc      Services
	cart     *cart.Store
	session  *session.Manager
	checkout *checkout.Orchestrator
	out      io.Writer
	log      *zap.Logger

	address  *order.Address
	commands map[string]command
}

func New(svc Services, c *cart.Store, sess *session.Manager, co *checkout.Orchestrator, out io.Writer, log *zap.Logger) *Shell {
	s := &Shell{
		svc:      svc,
		cart:     c,
		session:  sess,
		checkout: co,
		out:      out,
		log:      logger.OrNop(log),
	}
	s.commands = map[string]command{}
	s.registerCatalog()
	s.registerAccount()
	s.registerCart()
	s.registerOrders()
	s.registerAdmin()
	s.commands["help"] = command{usage: "help", help: "list commands", run: s.help}
	s.commands["quit"] = command{usage: "quit", help: "leave the shell", run: func(context.Context, []string) error { return errQuit }}
	return s
}

// Exec runs one command given as argv.
func (s *Shell) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, ok := s.commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s (try help)", ErrUnknownCommand, args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	if cmd.perm != "" && !s.session.Can(cmd.perm) {
		return fmt.Errorf("%w: %s needs %s", ErrForbidden, args[0], cmd.perm)
	}
	err := cmd.run(ctx, args[1:])
	if err != nil && !errors.Is(err, errQuit) {
		s.log.Debug("command_failed", zap.String("command", args[0]), zap.Error(err))
	}
	return err
}

// Run reads commands line by line until EOF, quit, or ctx is done.
// Command errors are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Exec(ctx, strings.Fields(scanner.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *Shell) prompt() {
	name := "guest"
	if st := s.session.State(); st.IsAuthenticated() {
		name = st.User.Email
	}
	fmt.Fprintf(s.out, "%s [%d in cart]> ", name, s.cart.Snapshot().TotalItems)
}

func (s *Shell) help(context.Context, []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	w := table(s.out)
	for _, name := range names {
		c := s.commands[name]
		fmt.Fprintf(w, "  %s\t%s\n", c.usage, c.help)
	}
	return w.Flush()
}

func (s *Shell) currentUser() *user.User {
	return s.session.State().User
}
