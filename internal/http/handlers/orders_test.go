package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFormatOrderNo(t *testing.T) {
	day := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		seq      int64
		expected string
	}{
		{name: "first of day", seq: 1, expected: "ORD202503070001"},
		{name: "padded to four digits", seq: 42, expected: "ORD202503070042"},
		{name: "four digit sequence", seq: 1234, expected: "ORD202503071234"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatOrderNo(day, tc.seq); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestResolveProductLine(t *testing.T) {
	qty3 := int32(3)
	price10 := 10.0

	cases := []struct {
		name          string
		storedQty     int32
		storedPrice   float64
		patchQty      *int32
		patchPrice    *float64
		expectedQty   int32
		expectedPrice float64
		expectedTotal float64
	}{
		{
			name:          "both supplied",
			storedQty:     2,
			storedPrice:   15.0,
			patchQty:      &qty3,
			patchPrice:    &price10,
			expectedQty:   3,
			expectedPrice: 10.0,
			expectedTotal: 30.0,
		},
		{
			name:          "only quantity supplied resolves price from stored",
			storedQty:     2,
			storedPrice:   15.0,
			patchQty:      &qty3,
			expectedQty:   3,
			expectedPrice: 15.0,
			expectedTotal: 45.0,
		},
		{
			name:          "only price supplied resolves quantity from stored",
			storedQty:     2,
			storedPrice:   15.0,
			patchPrice:    &price10,
			expectedQty:   2,
			expectedPrice: 10.0,
			expectedTotal: 20.0,
		},
		{
			name:          "nothing supplied keeps stored pair",
			storedQty:     2,
			storedPrice:   15.0,
			expectedQty:   2,
			expectedPrice: 15.0,
			expectedTotal: 30.0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qty, price, total := resolveProductLine(tc.storedQty, tc.storedPrice, tc.patchQty, tc.patchPrice)
			if qty != tc.expectedQty || price != tc.expectedPrice {
				t.Fatalf("expected pair %d/%v, got %d/%v", tc.expectedQty, tc.expectedPrice, qty, price)
			}
			if total != tc.expectedTotal {
				t.Fatalf("expected total %v, got %v", tc.expectedTotal, total)
			}
			if total != float64(qty)*price {
				t.Fatalf("total %v does not match %d * %v", total, qty, price)
			}
		})
	}
}

func TestOrderSearchWhereClause(t *testing.T) {
	openedFrom := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		params       orderSearchParams
		expectedSQL  string
		expectedArgs int
	}{
		{
			name:         "no filters still excludes deleted",
			params:       orderSearchParams{},
			expectedSQL:  "o.is_deleted = 0",
			expectedArgs: 0,
		},
		{
			name:         "order number",
			params:       orderSearchParams{OrderNo: "ORD202503070001"},
			expectedSQL:  "o.is_deleted = 0 and o.order_no = $1",
			expectedArgs: 1,
		},
		{
			name:         "status list",
			params:       orderSearchParams{OrderStatuses: []string{"OPEN", "CLOSED"}},
			expectedSQL:  "o.is_deleted = 0 and o.order_status = any($1)",
			expectedArgs: 1,
		},
		{
			name:         "opened-at range lower bound",
			params:       orderSearchParams{OpenedAtFrom: &openedFrom},
			expectedSQL:  "o.is_deleted = 0 and o.opened_at >= $1",
			expectedArgs: 1,
		},
		{
			name:   "unbound area means no area row",
			params: orderSearchParams{UnboundArea: true},
			expectedSQL: "o.is_deleted = 0 and " +
				"not exists (select 1 from sales_order_areas a where a.order_no = o.order_no)",
			expectedArgs: 0,
		},
		{
			name:   "area attribute filters",
			params: orderSearchParams{AreaName: "Hall", AreaType: "room"},
			expectedSQL: "o.is_deleted = 0 and " +
				"exists (select 1 from sales_order_areas a where a.order_no = o.order_no" +
				" and a.area_name like $1 and a.area_type = $2)",
			expectedArgs: 2,
		},
		{
			name:   "reservation filters",
			params: orderSearchParams{ReservedUsername: "li", ReservedContact: "138"},
			expectedSQL: "o.is_deleted = 0 and " +
				"exists (select 1 from sales_order_reserved rv where rv.order_no = o.order_no" +
				" and rv.username like $1 and rv.contact like $2)",
			expectedArgs: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := tc.params.whereClause()
			if sql != tc.expectedSQL {
				t.Fatalf("expected %q, got %q", tc.expectedSQL, sql)
			}
			if len(args) != tc.expectedArgs {
				t.Fatalf("expected %d args, got %d", tc.expectedArgs, len(args))
			}
		})
	}
}

func TestOrderSearchWhereClausePlaceholderNumbering(t *testing.T) {
	params := orderSearchParams{
		OrderNo:          "ORD202503070001",
		OrderStatuses:    []string{"OPEN"},
		AreaName:         "Hall",
		ReservedUsername: "li",
	}
	sql, args := params.whereClause()

	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	for _, placeholder := range []string{"$1", "$2", "$3", "$4"} {
		if !strings.Contains(sql, placeholder) {
			t.Fatalf("missing placeholder %s in %q", placeholder, sql)
		}
	}
	if strings.Contains(sql, "$5") {
		t.Fatalf("unexpected placeholder $5 in %q", sql)
	}
	if args[2] != "%Hall%" {
		t.Fatalf("expected wrapped like pattern, got %v", args[2])
	}
}

func TestReadOrderSearchParams(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/orders/page?orderStatus=OPEN,CLOSED,%20&unboundArea=true&openedAtFrom=2025-03-01&reservedContact=138", nil)
	params := readOrderSearchParams(r)

	if len(params.OrderStatuses) != 2 || params.OrderStatuses[0] != "OPEN" || params.OrderStatuses[1] != "CLOSED" {
		t.Fatalf("expected [OPEN CLOSED], got %v", params.OrderStatuses)
	}
	if !params.UnboundArea {
		t.Fatalf("expected unboundArea to be true")
	}
	if params.OpenedAtFrom == nil || params.OpenedAtFrom.Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("expected parsed openedAtFrom, got %v", params.OpenedAtFrom)
	}
	if params.ReservedContact != "138" {
		t.Fatalf("expected reservedContact 138, got %q", params.ReservedContact)
	}

	r = httptest.NewRequest("GET", "/orders/page?unboundArea=false", nil)
	if readOrderSearchParams(r).UnboundArea {
		t.Fatalf("expected unboundArea=false to stay false")
	}
}
