// Package listquery is the pagination, sorting and filtering contract shared
// by every list screen of the portal and by the list endpoints of the API.
//
// The portal counts pages from zero.  The API counts them from one, so the
// wire encoding adds one to CurrentPage.
package listquery

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Direction is the sort direction of a list.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Precision tells the API how FilterValue is matched.
type Precision string

const (
	Equal      Precision = "equal"
	Containing Precision = "containing"
)

// Query describes one request of a list screen.
type Query struct {
	PerPage         int       `json:"perPage"`
	CurrentPage     int       `json:"currentPage"` // zero-based
	OrderField      string    `json:"orderField"`
	OrderDirection  Direction `json:"orderDirection"`
	FilterField     string    `json:"filterField,omitempty"`
	FilterValue     string    `json:"filterValue,omitempty"`
	FilterPrecision Precision `json:"filterPrecision,omitempty"`
}

// Page is the envelope of every list response.  TotalRows counts all
// matching rows, not only the ones in Data.
type Page[T any] struct {
	Data      []T `json:"data"`
	TotalRows int `json:"totalRows"`
}

// HasFilter reports whether the query carries a usable filter.
func (q Query) HasFilter() bool {
	return q.FilterField != "" && strings.TrimSpace(q.FilterValue) != ""
}

// Offset is the index of the first row of the current page.
func (q Query) Offset() int { return q.CurrentPage * q.PerPage }

// Values builds the API query string parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("perPage", strconv.Itoa(q.PerPage))
	v.Set("currentPage", strconv.Itoa(q.CurrentPage+1))
	if q.OrderField != "" {
		v.Set("orderBy", q.OrderField)
	}
	if q.OrderDirection != "" {
		v.Set("orderDirection", string(q.OrderDirection))
	}
	if q.HasFilter() {
		v.Set("filterField", q.FilterField)
		v.Set("filterValue", strings.TrimSpace(q.FilterValue))
		precision := q.FilterPrecision
		if precision == "" {
			precision = Containing
		}
		v.Set("precision", string(precision))
	}
	return v
}

// Encode is Values().Encode().
func (q Query) Encode() string { return q.Values().Encode() }

// Normalize replaces invalid values with the screen defaults.
func (q Query) Normalize(cfg ScreenConfig) Query {
	def := cfg.Default()
	if q.PerPage <= 0 {
		q.PerPage = def.PerPage
	}
	if cfg.MaxPerPage > 0 && q.PerPage > cfg.MaxPerPage {
		q.PerPage = cfg.MaxPerPage
	}
	if q.PerPage > math.MaxInt32 {
		q.PerPage = math.MaxInt32
	}
	if q.CurrentPage < 0 {
		q.CurrentPage = 0
	}
	// keeps Offset and the one-based wire page inside int32
	if maxPage := math.MaxInt32/q.PerPage - 1; q.CurrentPage > maxPage {
		q.CurrentPage = maxPage
	}
	if q.OrderField == "" {
		q.OrderField = def.OrderField
	}
	switch Direction(strings.ToLower(string(q.OrderDirection))) {
	case Asc:
		q.OrderDirection = Asc
	case Desc:
		q.OrderDirection = Desc
	default:
		q.OrderDirection = def.OrderDirection
	}
	switch Precision(strings.ToLower(string(q.FilterPrecision))) {
	case Equal:
		q.FilterPrecision = Equal
	case Containing:
		q.FilterPrecision = Containing
	default:
		q.FilterPrecision = ""
	}
	if !q.HasFilter() {
		q.FilterField, q.FilterValue, q.FilterPrecision = "", "", ""
	}
	return q
}

// Parse reads a zero-based query sent by the portal to the gateway.  Both
// orderField and orderBy are accepted, as are filterPrecision and precision.
func Parse(v url.Values, cfg ScreenConfig) Query {
	q := Query{
		OrderField:      first(v, "orderField", "orderBy"),
		OrderDirection:  Direction(v.Get("orderDirection")),
		FilterField:     v.Get("filterField"),
		FilterValue:     v.Get("filterValue"),
		FilterPrecision: Precision(first(v, "filterPrecision", "precision")),
	}
	q.PerPage, _ = strconv.Atoi(v.Get("perPage"))
	if s := v.Get("currentPage"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			n = 0
		}
		q.CurrentPage = n
	}
	return q.Normalize(cfg)
}

// AfterResponse applies the screen's reaction to a response: screens that
// reset on empty results go back to the first page with the default size.
func AfterResponse(q Query, totalRows int, cfg ScreenConfig) Query {
	if totalRows == 0 && cfg.ResetOnEmpty {
		q.PerPage = cfg.Default().PerPage
		q.CurrentPage = 0
	}
	return q
}

func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s != "" {
			return s
		}
	}
	return ""
}
