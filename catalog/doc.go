// Package catalog holds the marketplace repositories: products,
// categories, wishlists, orders, profiles and the shopping cart.
//
// Reads go through the backend table API; the product and category lists
// are served cache-first and refreshed in the background with retries.
// Writes that need a role are checked against the session.AccessPolicy
// using the user attached to the context by session.WithUser.
package catalog
