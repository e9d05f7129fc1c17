package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/vendora/catalog"
	"github.com/jonwraymond/vendora/session"
)

func newProductsCmd() *cobra.Command {
	var (
		filter  catalog.Filter
		refresh bool
		mine    bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, snap := a.userContext(cmd.Context())

			var (
				products []catalog.Product
				err      error
			)
			switch {
			case mine:
				if !snap.SignedIn() {
					return session.ErrNotSignedIn
				}
				products, err = a.catalog.Products.BySeller(ctx, snap.User.ID)
			case refresh:
				products, err = a.catalog.Products.Refresh(ctx)
			default:
				products, err = a.catalog.Products.List(ctx)
			}
			if err != nil {
				return err
			}
			return writeProducts(cmd.OutOrStdout(), filter.Apply(products))
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.Category, "category", "", `category id, or "premium"`)
	f.StringVar(&filter.Search, "search", "", "match titles")
	f.BoolVar(&refresh, "refresh", false, "bypass the cache")
	f.BoolVar(&mine, "mine", false, "only my listings (sellers)")

	cmd.AddCommand(newProductAddCmd())
	return cmd
}

func newProductAddCmd() *cobra.Command {
	var (
		np    catalog.NewProduct
		price string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "List a product for sale (sellers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx, _ := a.userContext(cmd.Context())

			p, err := catalog.ParsePrice(price)
			if err != nil {
				return err
			}
			np.Title, np.Price = args[0], p
			created, err := a.catalog.Products.Create(ctx, np)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Listed %s at %s; you earn %s per sale\n",
				created.ID, created.Price, catalog.SellerEarnings(created.Price))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&price, "price", "", `price, e.g. "450,000"`)
	f.StringVar(&np.Category, "category", "", "category id")
	f.StringVar(&np.Description, "description", "", "description")
	f.StringVar(&np.Location, "location", "", "location")
	f.StringVar(&np.Image, "image", "", "image URL")
	f.BoolVar(&np.IsPremium, "premium", false, "premium listing")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, _ := a.userContext(cmd.Context())
			list := a.catalog.Categories.List(ctx)
			if admin {
				list = a.catalog.Categories.AdminList(ctx)
			}
			return writeCategories(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "list stored categories only")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <label>",
			Short: "Add a category (admins)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				ctx, _ := a.userContext(cmd.Context())
				c, err := a.catalog.Categories.Add(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", c.ID)
				return err
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a category (admins)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				ctx, _ := a.userContext(cmd.Context())
				return a.catalog.Categories.Delete(ctx, args[0])
			},
		},
	)
	return cmd
}

func newWishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show saved products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, _ := a.userContext(cmd.Context())
			products, err := a.catalog.Wishlist.Products(ctx)
			if err != nil {
				return err
			}
			return writeProducts(cmd.OutOrStdout(), products)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Save or unsave a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx, _ := a.userContext(cmd.Context())
			saved, err := a.catalog.Wishlist.Toggle(ctx, args[0])
			if err != nil {
				return err
			}
			msg := "Removed from wishlist"
			if saved {
				msg = "Saved to wishlist"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	})
	return cmd
}

func newOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show purchase history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, snap := a.userContext(cmd.Context())
			if !snap.SignedIn() {
				return session.ErrNotSignedIn
			}
			orders, err := a.catalog.Orders.History(ctx, snap.User.ID)
			if err != nil {
				return err
			}
			return writeOrders(cmd.OutOrStdout(), orders)
		},
	}
}

func newCartCmd() *cobra.Command {
	show := func(cmd *cobra.Command) error {
		a := appFrom(cmd)
		ctx := cmd.Context()
		lines, err := a.catalog.Cart.Lines(ctx)
		if err != nil {
			return err
		}
		total, err := a.catalog.Cart.Total(ctx)
		if err != nil {
			return err
		}
		return writeCart(cmd.OutOrStdout(), lines, total)
	}

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return show(cmd)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id> [quantity]",
			Short: "Add a product to the cart",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				qty, err := quantityArg(args, 1)
				if err != nil {
					return err
				}
				p, ok, err := a.catalog.Products.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("product %q not found", args[0])
				}
				if err := a.catalog.Cart.Add(cmd.Context(), *p, qty); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <quantity>",
			Short: "Change a quantity; 0 removes the line",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := quantityArg(args, 0)
				if err != nil {
					return err
				}
				if err := appFrom(cmd).catalog.Cart.UpdateQuantity(cmd.Context(), args[0], qty); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := appFrom(cmd).catalog.Cart.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return appFrom(cmd).catalog.Cart.Clear(cmd.Context())
			},
		},
	)
	return cmd
}

// quantityArg parses args[1], returning def when it is absent.
func quantityArg(args []string, def int) (int, error) {
	if len(args) < 2 {
		return def, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, errors.New("quantity must be a whole number")
	}
	return n, nil
}
