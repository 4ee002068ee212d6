package domain

import (
	"reflect"
	"strings"
	"testing"
)

func TestCompareEstimatesMatchesRewordedItems(t *testing.T) {
	original := Estimate{ID: "orig", LineItems: []LineItem{
		{Description: "Replace asphalt shingle roof", Quantity: 1, Amount: 12000},
	}}
	carrier := Estimate{ID: "carrier", LineItems: []LineItem{
		{Description: "Replace roof shingles", Quantity: 1, Amount: 12000},
	}}

	delta := CompareEstimates(original, carrier)
	if len(delta.RemovedLineItems) != 0 {
		t.Fatalf("reworded item must match, removed = %v", delta.RemovedLineItems)
	}
	if delta.ScopeRegressionDetected {
		t.Fatalf("identical scope must not flag regression")
	}
}

func TestCompareEstimatesDetectsRemovals(t *testing.T) {
	original := Estimate{ID: "orig", LineItems: []LineItem{
		{Description: "Replace asphalt shingle roof", Quantity: 1, Amount: 12000},
		{Description: "Repair drywall in living room", Quantity: 200, Unit: "sqft", Amount: 1800},
		{Description: "Replace carpet in bedroom", Quantity: 300, Unit: "sqft", Amount: 2100},
	}}
	carrier := Estimate{ID: "carrier", LineItems: []LineItem{
		{Description: "Replace roof shingles", Quantity: 1, Amount: 9000},
	}}

	delta := CompareEstimates(original, carrier)
	if len(delta.RemovedLineItems) != 2 {
		t.Fatalf("removed = %d, want 2", len(delta.RemovedLineItems))
	}
	if !delta.ScopeRegressionDetected {
		t.Fatalf("expected scope regression")
	}
	if !delta.ValuationChangesPresent {
		t.Fatalf("amount change on the matched roof item must flag valuation changes")
	}
	// drywall and carpet are both interior: one omitted category
	if len(delta.CategoryOmissions) != 1 || delta.CategoryOmissions[0] != "interior" {
		t.Fatalf("category omissions = %v", delta.CategoryOmissions)
	}
}

func TestCompareEstimatesSkipsUncategorizableOmissions(t *testing.T) {
	original := Estimate{LineItems: []LineItem{
		{Description: "Debris hauling service", Quantity: 1, Amount: 600},
		{Description: "Dumpster rental", Quantity: 1, Amount: 450},
	}}
	carrier := Estimate{LineItems: []LineItem{}}

	delta := CompareEstimates(original, carrier)
	if len(delta.RemovedLineItems) != 2 {
		t.Fatalf("removed = %d, want 2", len(delta.RemovedLineItems))
	}
	// Items matching no trade keyword carry no category, so nothing is
	// reported as a category omission.
	if len(delta.CategoryOmissions) != 0 {
		t.Fatalf("category omissions = %v", delta.CategoryOmissions)
	}
}

func TestCompareEstimatesQuantityReduction(t *testing.T) {
	original := Estimate{LineItems: []LineItem{
		{Description: "Repair drywall in living room", Quantity: 200, Unit: "sqft", Amount: 1800},
	}}
	carrier := Estimate{LineItems: []LineItem{
		{Description: "Drywall repair living room", Quantity: 120, Unit: "sqft", Amount: 1080},
	}}

	delta := CompareEstimates(original, carrier)
	if len(delta.ReducedQuantities) != 1 {
		t.Fatalf("reduced = %v", delta.ReducedQuantities)
	}
	red := delta.ReducedQuantities[0]
	if red.OriginalQuantity != 200 || red.CarrierQuantity != 120 {
		t.Fatalf("reduction = %+v", red)
	}
}

func TestCompareEstimatesDeterministic(t *testing.T) {
	original := Estimate{LineItems: []LineItem{
		{Description: "Replace gutters", Quantity: 120, Amount: 900},
		{Description: "Paint interior ceiling", Quantity: 400, Amount: 1200},
	}}
	carrier := Estimate{LineItems: []LineItem{
		{Description: "Gutter replacement", Quantity: 120, Amount: 900},
	}}

	first := CompareEstimates(original, carrier)
	for i := 0; i < 3; i++ {
		if got := CompareEstimates(original, carrier); !reflect.DeepEqual(first, got) {
			t.Fatalf("delta differs across calls")
		}
	}
}

func TestDeltaSummaryNeutral(t *testing.T) {
	empty := CompareEstimates(Estimate{}, Estimate{})
	if got := DeltaSummary(empty); got != "No significant differences between the estimates." {
		t.Fatalf("summary = %q", got)
	}

	delta := EstimateDelta{
		RemovedLineItems:        []LineItem{{Description: "x"}},
		ReducedQuantities:       []QuantityReduction{},
		CategoryOmissions:       []string{},
		ScopeRegressionDetected: true,
	}
	summary := DeltaSummary(delta)
	if !strings.Contains(summary, "1 line item(s)") {
		t.Fatalf("summary = %q", summary)
	}
	for _, judgment := range []string{"unfair", "underpaid", "should"} {
		if strings.Contains(strings.ToLower(summary), judgment) {
			t.Fatalf("summary must stay neutral, got %q", summary)
		}
	}
}
