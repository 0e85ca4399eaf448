package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestReadPageParams(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		page     int
		pageSize int
	}{
		{name: "defaults", query: "", page: 1, pageSize: 10},
		{name: "explicit values", query: "?page=3&pageSize=25", page: 3, pageSize: 25},
		{name: "zero falls back", query: "?page=0&pageSize=0", page: 1, pageSize: 10},
		{name: "negative falls back", query: "?page=-2&pageSize=-5", page: 1, pageSize: 10},
		{name: "garbage falls back", query: "?page=abc&pageSize=xyz", page: 1, pageSize: 10},
		{name: "page size capped", query: "?pageSize=5000", page: 1, pageSize: 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/page"+tc.query, nil)
			params := readPageParams(r)
			if params.Page != tc.page || params.PageSize != tc.pageSize {
				t.Fatalf("expected page=%d size=%d, got page=%d size=%d",
					tc.page, tc.pageSize, params.Page, params.PageSize)
			}
		})
	}
}

func TestPageParamsOffset(t *testing.T) {
	if got := (pageParams{Page: 1, PageSize: 10}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := (pageParams{Page: 4, PageSize: 25}).Offset(); got != 75 {
		t.Fatalf("expected offset 75, got %d", got)
	}
}

func TestParseDateTimeParam(t *testing.T) {
	cases := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "rfc3339", value: "2025-03-07T14:30:00Z", ok: true},
		{name: "no zone", value: "2025-03-07T14:30:00", ok: true},
		{name: "space separated", value: "2025-03-07 14:30:00", ok: true},
		{name: "date only", value: "2025-03-07", ok: true},
		{name: "garbage", value: "next tuesday", ok: false},
		{name: "empty", value: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseDateTimeParam(tc.value)
			if tc.ok && err != nil {
				t.Fatalf("expected parse to succeed, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected parse to fail, got %v", parsed)
			}
			if tc.ok && parsed.Year() != 2025 {
				t.Fatalf("unexpected parsed value %v", parsed)
			}
		})
	}
}

func TestQueryInt64Ptr(t *testing.T) {
	r := httptest.NewRequest("GET", "/exists?materialId=12&bad=abc", nil)

	if got := queryInt64Ptr(r, "materialId"); got == nil || *got != 12 {
		t.Fatalf("expected 12, got %v", got)
	}
	if got := queryInt64Ptr(r, "bad"); got != nil {
		t.Fatalf("expected nil for non-numeric value, got %v", got)
	}
	if got := queryInt64Ptr(r, "absent"); got != nil {
		t.Fatalf("expected nil for absent key, got %v", got)
	}
}
