package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/session"
)

func (s *Shell) registerCatalog() {
	s.commands["products"] = command{usage: "products [search]", help: "list products", run: s.products}
	s.commands["product"] = command{usage: "product <id>", help: "show one product", minArgs: 1, run: s.product}
	s.commands["categories"] = command{usage: "categories", help: "list categories", run: s.categories}
	s.commands["reviews"] = command{usage: "reviews <product-id>", help: "list reviews of a product", minArgs: 1, run: s.reviews}
	s.commands["review"] = command{
		usage:   "review <product-id> <rating> <comment...>",
		help:    "review a product",
		minArgs: 2,
		perm:    session.WriteReviews,
		run:     s.review,
	}
}

func (s *Shell) products(ctx context.Context, args []string) error {
	list, page, err := s.svc.Products.List(ctx, product.ListParams{Search: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	w := table(s.out)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", p.ID, p.Name, money(p.Price), p.Stock)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	pageFooter(s.out, page)
	return nil
}

func (s *Shell) product(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	p, err := s.svc.Products.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "#%d %s\n%s\nprice %s, %d in stock\n", p.ID, p.Name, p.Description, money(p.Price), p.Stock)
	return nil
}

func (s *Shell) categories(ctx context.Context, _ []string) error {
	list, err := s.svc.Categories.List(ctx)
	if err != nil {
		return err
	}
	w := table(s.out)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range list {
		fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
	}
	return w.Flush()
}

func (s *Shell) reviews(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	list, err := s.svc.Reviews.ListForProduct(ctx, id)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "no reviews yet")
		return nil
	}
	fmt.Fprintf(s.out, "average %.1f from %d reviews\n", review.AverageRating(list), len(list))
	for _, r := range list {
		fmt.Fprintf(s.out, "  %s %d/5  %s\n", r.UserName, r.Rating, r.Comment)
	}
	return nil
}

func (s *Shell) review(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	rating, err := parseInt(args[1])
	if err != nil {
		return err
	}
	r, err := s.svc.Reviews.Create(ctx, review.Input{
		ProductID: id,
		Rating:    rating,
		Comment:   strings.Join(args[2:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "review #%d saved\n", r.ID)
	return nil
}
