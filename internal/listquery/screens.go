package listquery

import (
	"strings"
	"time"
)

const (
	DefaultPerPage  = 10
	DefaultDebounce = 500 * time.Millisecond
)

// ScreenConfig holds the per-screen choices of a list.  ResetOnEmpty is a
// screen decision; screens are not expected to agree on it.
type ScreenConfig struct {
	Name                  string
	DefaultPerPage        int
	MaxPerPage            int
	DefaultOrderField     string
	DefaultOrderDirection Direction
	ResetOnEmpty          bool
	FilterDebounce        time.Duration
}

// Default is the query a screen starts with.
func (c ScreenConfig) Default() Query {
	q := Query{
		PerPage:        c.DefaultPerPage,
		OrderField:     c.DefaultOrderField,
		OrderDirection: c.DefaultOrderDirection,
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.OrderField == "" {
		q.OrderField = "id"
	}
	if q.OrderDirection == "" {
		q.OrderDirection = Asc
	}
	return q
}

func (c ScreenConfig) debounce() time.Duration {
	if c.FilterDebounce > 0 {
		return c.FilterDebounce
	}
	return DefaultDebounce
}

// screens lists the list screens of the portal, keyed by the resource they
// show.
var screens = map[string]ScreenConfig{
	"suppliers":         {Name: "suppliers", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "name", ResetOnEmpty: true},
	"products":          {Name: "products", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "description", ResetOnEmpty: true},
	"cost-centers":      {Name: "cost-centers", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "code"},
	"categories":        {Name: "categories", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "name"},
	"units":             {Name: "units", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "code"},
	"wallets":           {Name: "wallets", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "name"},
	"stock-requests":    {Name: "stock-requests", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "id", DefaultOrderDirection: Desc, ResetOnEmpty: true},
	"purchase-requests": {Name: "purchase-requests", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "id", DefaultOrderDirection: Desc, ResetOnEmpty: true},
	"purchase-orders":   {Name: "purchase-orders", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "id", DefaultOrderDirection: Desc},
	"quotations":        {Name: "quotations", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "id", DefaultOrderDirection: Desc},
	"reports":           {Name: "reports", DefaultPerPage: 25, MaxPerPage: 500, DefaultOrderField: "date", DefaultOrderDirection: Desc},
	"report-templates":  {Name: "report-templates", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "name"},
	"head-offices":      {Name: "head-offices", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "code"},
	"request-types":     {Name: "request-types", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "description"},
	"users":             {Name: "users", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "name", ResetOnEmpty: true},
	"approvals":         {Name: "approvals", DefaultPerPage: 10, MaxPerPage: 100, DefaultOrderField: "createdAt", DefaultOrderDirection: Desc, ResetOnEmpty: true},
}

// ScreenFor returns the configuration of a list screen.  Unknown screens get
// the plain defaults and do not reset on empty results.
func ScreenFor(name string) ScreenConfig {
	if cfg, ok := screens[strings.ToLower(name)]; ok {
		return cfg
	}
	return ScreenConfig{Name: name, DefaultPerPage: DefaultPerPage, MaxPerPage: 100}
}
