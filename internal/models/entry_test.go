package models

import (
	"encoding/json"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func s(v string) *string   { return &v }

func TestViewSerializesSleepBothWays(t *testing.T) {
	e := HealthEntry{
		ID:         7,
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Weight:     f(70.5),
		SleepTotal: f(7.5),
	}

	v := e.View()
	if v.Date != "2026-03-10" {
		t.Errorf("date = %q, want 2026-03-10", v.Date)
	}
	if v.SleepTotal == nil || *v.SleepTotal != "07:30" {
		t.Errorf("sleep_total = %v, want 07:30", v.SleepTotal)
	}
	if v.SleepTotalDecimal == nil || *v.SleepTotalDecimal != 7.5 {
		t.Errorf("sleep_total_decimal = %v, want 7.5", v.SleepTotalDecimal)
	}
}

func TestViewNullsStayNull(t *testing.T) {
	e := HealthEntry{ID: 1, Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}

	data, err := json.Marshal(e.View())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"weight", "body_fat", "calories", "steps", "sleep_total", "sleep_total_decimal", "sleep_quality", "observations"} {
		if v, ok := m[key]; !ok || v != nil {
			t.Errorf("%s = %v, want explicit null", key, v)
		}
	}
}

func TestAccessorsConvertIntFields(t *testing.T) {
	e := HealthEntry{Calories: i(2200), Steps: i(9500), Weight: f(70.5)}

	if v := e.CaloriesKcal(); v == nil || *v != 2200 {
		t.Errorf("CaloriesKcal = %v, want 2200", v)
	}
	if v := e.StepsCount(); v == nil || *v != 9500 {
		t.Errorf("StepsCount = %v, want 9500", v)
	}
	if v := e.WeightKg(); v == nil || *v != 70.5 {
		t.Errorf("WeightKg = %v, want 70.5", v)
	}

	empty := HealthEntry{}
	if empty.CaloriesKcal() != nil || empty.StepsCount() != nil || empty.SleepHours() != nil {
		t.Error("accessors on empty entry must return nil")
	}
}

func TestViewCarriesStrings(t *testing.T) {
	e := HealthEntry{
		Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		SleepQuality: s("85%"),
		Observations: s("rest day"),
	}
	v := e.View()
	if v.SleepQuality == nil || *v.SleepQuality != "85%" {
		t.Errorf("sleep_quality = %v, want 85%%", v.SleepQuality)
	}
	if v.Observations == nil || *v.Observations != "rest day" {
		t.Errorf("observations = %v, want rest day", v.Observations)
	}
}
