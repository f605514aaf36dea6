package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

// TestOutcomeJSONHidesError verifies the raw error never reaches serialized output
func TestOutcomeJSONHidesError(t *testing.T) {
	outcome := Failed("extract", errors.New("dial tcp 10.0.0.1:443: connection refused"))
	outcome.RequestID = "req-1"

	jsonBytes, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("Failed to marshal outcome: %v", err)
	}

	var unmarshaled map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if unmarshaled["status"] != string(StatusFailed) {
		t.Errorf("status = %v, want %s", unmarshaled["status"], StatusFailed)
	}
	if unmarshaled["stage"] != "extract" {
		t.Errorf("stage = %v, want extract", unmarshaled["stage"])
	}
	if unmarshaled["reason"] != "product page could not be extracted" {
		t.Errorf("reason = %v, want generic extract reason", unmarshaled["reason"])
	}
	for _, key := range []string{"page", "result", "Err", "err"} {
		if _, exists := unmarshaled[key]; exists {
			t.Errorf("%s should be omitted from a failure outcome", key)
		}
	}
}

// TestOutcomeJSONSucceeded verifies page and result are present on success
func TestOutcomeJSONSucceeded(t *testing.T) {
	page := &ProductPage{Title: "Widget", ImageURL: "http://x/img.png", Reviews: []string{"خوب بود"}}
	outcome := Succeeded(page, &SentimentResult{SatisfactionFraction: 0.75, ReviewCount: 1})

	jsonBytes, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("Failed to marshal outcome: %v", err)
	}

	var unmarshaled map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if _, exists := unmarshaled["page"]; !exists {
		t.Error("page field is missing from JSON")
	}
	result, ok := unmarshaled["result"].(map[string]interface{})
	if !ok {
		t.Fatal("result field is missing from JSON")
	}
	if result["satisfaction_fraction"] != 0.75 {
		t.Errorf("satisfaction_fraction = %v, want 0.75", result["satisfaction_fraction"])
	}
}

func TestSentimentResultPercentage(t *testing.T) {
	r := SentimentResult{SatisfactionFraction: 0.8123}
	if math.Abs(r.Percentage()-81.23) > 1e-9 {
		t.Errorf("Percentage() = %v, want 81.23", r.Percentage())
	}
}
