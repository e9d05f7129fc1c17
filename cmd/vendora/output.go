package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/jonwraymond/vendora/cache"
	"github.com/jonwraymond/vendora/catalog"
	"github.com/jonwraymond/vendora/session"
)

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func writeProducts(w io.Writer, products []catalog.Product) error {
	rows := make([][]string, len(products))
	for i, p := range products {
		premium := ""
		if p.IsPremium {
			premium = "★"
		}
		rows[i] = []string{p.ID, p.Title, p.Price.String(), p.Category, p.Location, premium}
	}
	return renderTable(w, []string{"ID", "Title", "Price", "Category", "Location", "Premium"}, rows)
}

func writeCategories(w io.Writer, categories []catalog.Category) error {
	rows := make([][]string, len(categories))
	for i, c := range categories {
		rows[i] = []string{c.ID, c.Label, c.IconName}
	}
	return renderTable(w, []string{"ID", "Label", "Icon"}, rows)
}

func writeOrders(w io.Writer, orders []catalog.Order) error {
	rows := make([][]string, len(orders))
	for i, o := range orders {
		rows[i] = []string{o.ID, o.CreatedAt.Format(time.DateOnly), o.Summary(), o.TotalAmount.String(), o.Status}
	}
	return renderTable(w, []string{"Order", "Date", "Items", "Total", "Status"}, rows)
}

func writeCart(w io.Writer, lines []catalog.CartLine, total catalog.Price) error {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l.Product.ID, l.Product.Title, strconv.Itoa(l.Quantity), l.Product.Price.String(), l.Subtotal().String()}
	}
	if err := renderTable(w, []string{"ID", "Title", "Qty", "Price", "Subtotal"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total: %s\n", total)
	return err
}

func writeUser(w io.Writer, u *session.UserProfile) error {
	rows := [][]string{
		{"Name", u.DisplayName()},
		{"Email", u.Email},
		{"Role", u.EffectiveRole()},
		{"Location", location(u.City, u.State)},
		{"User ID", u.ID},
	}
	if !u.HasProfile {
		rows = append(rows, []string{"Profile", "not created"})
	}
	return renderTable(w, []string{"Field", "Value"}, rows)
}

func writeCacheEntries(w io.Writer, entries []cache.EntryInfo) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		expires := "in " + e.ExpiresIn.Round(time.Second).String()
		if e.Expired {
			expires = "expired"
		}
		rows = append(rows, []string{e.Key, e.Age.Round(time.Second).String(), expires})
	}
	return renderTable(w, []string{"Key", "Age", "Expires"}, rows)
}

func location(city, state string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{city, state} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
