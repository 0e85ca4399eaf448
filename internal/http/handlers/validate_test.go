package handlers

import "testing"

func TestValidateStructUsesJSONFieldNames(t *testing.T) {
	type sample struct {
		OrderNo  string `json:"orderNo" validate:"required,min=1"`
		Quantity int32  `json:"quantity" validate:"gt=0"`
		Kind     string `json:"type" validate:"required,oneof=area product payment reserved"`
	}

	issues := validateStruct(&sample{Kind: "bogus"})
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}

	byField := map[string]string{}
	for _, issue := range issues {
		byField[issue.Field] = issue.Message
	}

	if byField["orderNo"] != "is required" {
		t.Fatalf("expected orderNo required message, got %q", byField["orderNo"])
	}
	if byField["quantity"] != "must be greater than 0" {
		t.Fatalf("expected quantity gt message, got %q", byField["quantity"])
	}
	if byField["type"] != "must be one of: area product payment reserved" {
		t.Fatalf("expected type oneof message, got %q", byField["type"])
	}
}

func TestValidateStructPassesValidInput(t *testing.T) {
	type sample struct {
		Name  string  `json:"name" validate:"required,min=1,max=50"`
		Price float64 `json:"price" validate:"gte=0"`
	}

	if issues := validateStruct(&sample{Name: "Green Tea", Price: 0}); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}
