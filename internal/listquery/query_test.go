package listquery

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValues_CurrentPageIsOneBasedOnTheWire(t *testing.T) {
	q := Query{PerPage: 10, CurrentPage: 0, OrderField: "name", OrderDirection: Asc}

	v := q.Values()
	require.Equal(t, "1", v.Get("currentPage"))
	require.Equal(t, "10", v.Get("perPage"))
	require.Equal(t, "name", v.Get("orderBy"))
	require.Equal(t, "asc", v.Get("orderDirection"))
	require.Contains(t, q.Encode(), "currentPage=1")
	require.Empty(t, v.Get("filterField"))
}

func TestValues_FilterDefaultsToContaining(t *testing.T) {
	q := Query{PerPage: 20, CurrentPage: 3, FilterField: "name", FilterValue: "  parafuso "}

	v := q.Values()
	require.Equal(t, "4", v.Get("currentPage"))
	require.Equal(t, "name", v.Get("filterField"))
	require.Equal(t, "parafuso", v.Get("filterValue"))
	require.Equal(t, "containing", v.Get("precision"))
	require.Equal(t, 60, q.Offset())
}

func TestParse_NormalizesAgainstScreen(t *testing.T) {
	cfg := ScreenFor("suppliers")
	v := url.Values{}
	v.Set("perPage", "1000")
	v.Set("currentPage", "-2")
	v.Set("orderDirection", "DESC")
	v.Set("filterField", "cnpj")
	v.Set("filterValue", "123")
	v.Set("precision", "equal")

	q := Parse(v, cfg)
	require.Equal(t, 100, q.PerPage)
	require.Equal(t, 0, q.CurrentPage)
	require.Equal(t, "name", q.OrderField)
	require.Equal(t, Desc, q.OrderDirection)
	require.Equal(t, Equal, q.FilterPrecision)
}

func TestParse_DropsFilterWithoutValue(t *testing.T) {
	v := url.Values{}
	v.Set("filterField", "name")
	v.Set("filterPrecision", "equal")

	q := Parse(v, ScreenFor("unknown"))
	require.Equal(t, DefaultPerPage, q.PerPage)
	require.Empty(t, q.FilterField)
	require.Empty(t, q.FilterPrecision)
}

func TestAfterResponse_PerScreenReset(t *testing.T) {
	q := Query{PerPage: 50, CurrentPage: 4}

	reset := AfterResponse(q, 0, ScreenFor("purchase-requests"))
	require.Equal(t, 0, reset.CurrentPage)
	require.Equal(t, 10, reset.PerPage)

	kept := AfterResponse(q, 0, ScreenFor("cost-centers"))
	require.Equal(t, q, kept)

	nonEmpty := AfterResponse(q, 3, ScreenFor("purchase-requests"))
	require.Equal(t, q, nonEmpty)
}

func TestParse_HugePageStaysInRange(t *testing.T) {
	v := url.Values{}
	v.Set("perPage", "10")
	v.Set("currentPage", "9223372036854775807")

	q := Parse(v, ScreenFor("suppliers"))
	require.Equal(t, math.MaxInt32/10-1, q.CurrentPage)
	require.Positive(t, q.Offset())
	require.LessOrEqual(t, q.Offset(), math.MaxInt32)
	wire, err := strconv.Atoi(q.Values().Get("currentPage"))
	require.NoError(t, err)
	require.Equal(t, q.CurrentPage+1, wire)

	unbounded := Query{PerPage: math.MaxInt, CurrentPage: 3}.Normalize(ScreenConfig{})
	require.Equal(t, math.MaxInt32, unbounded.PerPage)
	require.Zero(t, unbounded.CurrentPage)
}
