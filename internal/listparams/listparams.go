// Package listparams validates the pagination, projection and ordering query
// parameters accepted by list endpoints.
package listparams

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Fields projections.
const (
	FieldsAll   = "all"
	FieldsBrief = "brief"
)

// ValidationError is returned for any malformed list parameter. Status is
// always http.StatusBadRequest.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Options configures Parse. The zero value is usable.
type Options struct {
	DefaultLimit  int
	MaxLimit      int
	DefaultOffset int
	// AllowedOrderColumns maps the public column name accepted in the query
	// to the real column used in SQL. Matching is case-insensitive.
	AllowedOrderColumns map[string]string
	// DefaultOrder is used when the query has no order, in "column:direction" form.
	DefaultOrder      string
	ApplyDefaultLimit bool
}

// OrderColumns builds an allow-list where each public name is also the SQL column.
func OrderColumns(names ...string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[n] = n
	}
	return m
}

// Order is a validated ordering.
type Order struct {
	Key       string `json:"column"`
	Column    string `json:"-"`
	Direction string `json:"direction"`
}

// String renders the order in the "column:direction" form Parse accepts.
func (o Order) String() string {
	return o.Key + ":" + o.Direction
}

// SQL renders an ORDER BY term. Column and direction both come from the allow-list.
func (o Order) SQL() string {
	return o.Column + " " + strings.ToUpper(o.Direction)
}

// Params is the normalized result of Parse.
type Params struct {
	Limit   *int   `json:"limit"`
	Offset  int    `json:"offset"`
	Fields  string `json:"fields"`
	Order   *Order `json:"order"`
	OrderBy string `json:"orderBy"`

	HasLimit           bool `json:"hasLimit"`
	HasOffset          bool `json:"hasOffset"`
	HasFields          bool `json:"hasFields"`
	HasOrder           bool `json:"hasOrder"`
	IsPagedOrSelective bool `json:"isPagedOrSelective"`
}

// Brief reports whether the caller asked for the brief projection.
func (p Params) Brief() bool {
	return p.Fields == FieldsBrief
}

// Parse validates query against opts. Every failure is a *ValidationError.
//
// order is read either as "order=column:direction" or as the structured pair
// "order[column]=...&order[direction]=...".
func Parse(query url.Values, opts Options) (Params, error) {
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	defLimit := opts.DefaultLimit
	if defLimit <= 0 {
		defLimit = DefaultLimit
	}
	if defLimit > maxLimit {
		defLimit = maxLimit
	}
	defOffset := opts.DefaultOffset
	if defOffset < 0 {
		defOffset = 0
	}

	p := Params{Offset: defOffset, Fields: FieldsAll}

	if raw, ok := lookup(query, "fields"); ok {
		f := strings.ToLower(raw)
		if f != FieldsAll && f != FieldsBrief {
			return Params{}, invalid("fields must be %q or %q", FieldsAll, FieldsBrief)
		}
		p.Fields = f
		p.HasFields = true
	}

	if raw, ok := lookup(query, "limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return Params{}, invalid("limit must be an integer between 1 and %d", maxLimit)
		}
		p.Limit = &n
		p.HasLimit = true
	}

	if raw, ok := lookup(query, "offset"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Params{}, invalid("offset must be a non-negative integer")
		}
		p.Offset = n
		p.HasOffset = true
	}

	order, hasOrder, err := orderFromQuery(query, opts.AllowedOrderColumns)
	if err != nil {
		return Params{}, err
	}
	if !hasOrder && strings.TrimSpace(opts.DefaultOrder) != "" {
		if order, err = ParseOrder(opts.DefaultOrder, opts.AllowedOrderColumns); err != nil {
			return Params{}, err
		}
	}
	if order != nil {
		p.Order = order
		p.OrderBy = order.String()
	}
	p.HasOrder = hasOrder

	p.IsPagedOrSelective = p.HasLimit || p.HasOffset || p.HasFields || p.HasOrder
	if p.Limit == nil && p.IsPagedOrSelective && opts.ApplyDefaultLimit {
		n := defLimit
		p.Limit = &n
	}
	return p, nil
}

func lookup(query url.Values, key string) (string, bool) {
	if _, ok := query[key]; !ok {
		return "", false
	}
	v := strings.TrimSpace(query.Get(key))
	return v, v != ""
}

func orderFromQuery(query url.Values, allowed map[string]string) (*Order, bool, error) {
	if raw, ok := lookup(query, "order"); ok {
		o, err := ParseOrder(raw, allowed)
		return o, true, err
	}
	col, hasCol := lookup(query, "order[column]")
	dir, hasDir := lookup(query, "order[direction]")
	if !hasCol && !hasDir {
		return nil, false, nil
	}
	o, err := resolveOrder(col, dir, allowed)
	return o, true, err
}

// ParseOrder validates a "column:direction" string. The direction may be
// omitted and defaults to desc.
func ParseOrder(raw string, allowed map[string]string) (*Order, error) {
	col, dir, _ := strings.Cut(strings.TrimSpace(raw), ":")
	return resolveOrder(col, dir, allowed)
}

func resolveOrder(col, dir string, allowed map[string]string) (*Order, error) {
	col = strings.TrimSpace(col)
	if col == "" {
		return nil, invalid("order column is required")
	}
	if len(allowed) == 0 {
		return nil, invalid("ordering is not supported for this list")
	}

	var key, column string
	for k, v := range allowed {
		if strings.EqualFold(k, col) {
			key, column = k, v
			break
		}
	}
	if key == "" {
		return nil, invalid("invalid order column %q (allowed: %s)", col, strings.Join(allowedKeys(allowed), ", "))
	}

	dir = strings.ToLower(strings.TrimSpace(dir))
	if dir == "" {
		dir = "desc"
	}
	if dir != "asc" && dir != "desc" {
		return nil, invalid("invalid order direction %q (expected asc or desc)", dir)
	}
	return &Order{Key: key, Column: column, Direction: dir}, nil
}

func allowedKeys(allowed map[string]string) []string {
	keys := make([]string, 0, len(allowed))
	for k := range allowed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
