package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const restPath = "/rest/v1/"

// Query builds a PostgREST request against one table. Builders are not
// safe for concurrent use; create one per request.
type Query struct {
	client  *Client
	table   string
	columns string
	filters url.Values
	order   []string
	limit   int
	token   string
}

// From starts a query on table. Requests carry the signed-in user's token
// when an Auth is attached to the client, otherwise the anon key.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, filters: url.Values{}}
}

// Select sets the returned columns ("*" when unset).
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column string, value any) *Query {
	q.filters.Add(column, "eq."+fmt.Sprint(value))
	return q
}

// In filters rows where column is one of values.
func (q *Query) In(column string, values []string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteValue(v)
	}
	q.filters.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Order sorts by column. Multiple calls add tie-breakers.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = append(q.order, column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// WithToken overrides the bearer token for this query.
func (q *Query) WithToken(token string) *Query {
	q.token = token
	return q
}

func (q *Query) values(read bool) url.Values {
	v := url.Values{}
	for k, vs := range q.filters {
		v[k] = append([]string(nil), vs...)
	}
	if read {
		cols := q.columns
		if cols == "" {
			cols = "*"
		}
		v.Set("select", cols)
		if len(q.order) > 0 {
			v.Set("order", strings.Join(q.order, ","))
		}
		if q.limit > 0 {
			v.Set("limit", strconv.Itoa(q.limit))
		}
	} else if q.columns != "" {
		v.Set("select", q.columns)
	}
	return v
}

func (q *Query) request(op, method string, read bool) request {
	return request{
		op:         q.table + "." + op,
		method:     method,
		path:       restPath + q.table,
		query:      q.values(read),
		token:      q.token,
		useSession: true,
	}
}

// Find decodes all matching rows into out, which must point to a slice.
func (q *Query) Find(ctx context.Context, out any) error {
	return q.client.do(ctx, q.request("select", http.MethodGet, true), out)
}

// MaybeSingle decodes at most one matching row into out. It reports false
// when no row matches and ErrMultipleRows when more than one does.
func (q *Query) MaybeSingle(ctx context.Context, out any) (bool, error) {
	var rows []json.RawMessage
	if err := q.Find(ctx, &rows); err != nil {
		return false, err
	}
	switch len(rows) {
	case 0:
		return false, nil
	case 1:
		if err := json.Unmarshal(rows[0], out); err != nil {
			return false, fmt.Errorf("backend: decode %s row: %w", q.table, err)
		}
		return true, nil
	default:
		return false, ErrMultipleRows
	}
}

// Insert adds rows (a struct, map or slice of either). When out is
// non-nil the inserted rows are returned into it.
func (q *Query) Insert(ctx context.Context, rows any, out any) error {
	r := q.request("insert", http.MethodPost, false)
	r.body = rows
	r.header = preferHeader(out != nil)
	return q.client.do(ctx, r, out)
}

// Update patches every matching row. At least one filter is required.
func (q *Query) Update(ctx context.Context, patch any, out any) error {
	if len(q.filters) == 0 {
		return ErrUnfilteredMutation
	}
	r := q.request("update", http.MethodPatch, false)
	r.body = patch
	r.header = preferHeader(out != nil)
	return q.client.do(ctx, r, out)
}

// Delete removes every matching row. At least one filter is required.
func (q *Query) Delete(ctx context.Context) error {
	if len(q.filters) == 0 {
		return ErrUnfilteredMutation
	}
	return q.client.do(ctx, q.request("delete", http.MethodDelete, false), nil)
}

func preferHeader(returnRows bool) http.Header {
	if returnRows {
		return http.Header{"Prefer": {"return=representation"}}
	}
	return http.Header{"Prefer": {"return=minimal"}}
}

// quoteValue quotes a value for an in.() list when it contains
// characters PostgREST treats as delimiters.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, `,()" \`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
