package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/ec-storefront/internal/domain/user"
)

func (s *Shell) registerAccount() {
	s.commands["login"] = command{usage: "login <email> <password>", help: "sign in", minArgs: 2, run: s.login}
	s.commands["register"] = command{usage: "register <name> <email> <password>", help: "create an account", minArgs: 3, run: s.register}
	s.commands["logout"] = command{usage: "logout", help: "sign out", run: s.logout}
	s.commands["whoami"] = command{usage: "whoami", help: "show the signed-in user", run: s.whoami}
}

func (s *Shell) login(ctx context.Context, args []string) error {
	u, err := s.session.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "signed in as %s (%s)\n", u.Email, u.Role)
	return nil
}

// register takes the last two words as email and password; the rest is the name.
func (s *Shell) register(ctx context.Context, args []string) error {
	n := len(args)
	u, err := s.session.Register(ctx, user.Registration{
		Name:     strings.Join(args[:n-2], " "),
		Email:    args[n-2],
		Password: args[n-1],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "welcome, %s\n", u.Name)
	return nil
}

func (s *Shell) logout(ctx context.Context, _ []string) error {
	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "signed out")
	return nil
}

func (s *Shell) whoami(context.Context, []string) error {
	u := s.currentUser()
	if u == nil {
		fmt.Fprintln(s.out, "not signed in")
		return nil
	}
	fmt.Fprintf(s.out, "%s <%s> role=%s id=%d\n", u.Name, u.Email, u.Role, u.ID)
	return nil
}
