package domain

import (
	"encoding/json"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TimeOfDay
	}{
		{name: "morning padded", input: "07:00 AM", want: NewTimeOfDay(7, 0)},
		{name: "evening padded", input: "05:00 PM", want: NewTimeOfDay(17, 0)},
		{name: "unpadded lower case", input: "7:05 pm", want: NewTimeOfDay(19, 5)},
		{name: "no space", input: "06:30PM", want: NewTimeOfDay(18, 30)},
		{name: "midnight", input: "12:00 AM", want: NewTimeOfDay(0, 0)},
		{name: "noon", input: "12:15 PM", want: NewTimeOfDay(12, 15)},
		{name: "24 hour", input: "19:30", want: NewTimeOfDay(19, 30)},
		{name: "surrounding space", input: "  08:45 AM ", want: NewTimeOfDay(8, 45)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, input := range []string{"", "noon", "25:00", "07:60 AM", "13:00 PM"} {
		if _, err := ParseTimeOfDay(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestTimeOfDay_OrderingAcrossPeriods(t *testing.T) {
	morning, _ := ParseTimeOfDay("07:30 AM")
	evening, _ := ParseTimeOfDay("05:00 PM")
	late, _ := ParseTimeOfDay("06:30 PM")
	pmSeven, _ := ParseTimeOfDay("07:00 PM")

	if !morning.Before(evening) || !evening.Before(late) {
		t.Errorf("expected 07:30 AM < 05:00 PM < 06:30 PM")
	}
	// "07:00 PM" sorts before "07:30 AM" as a string; as a time it must not.
	if pmSeven.Before(morning) {
		t.Errorf("07:00 PM must not precede 07:30 AM")
	}
}

func TestTimeOfDay_String(t *testing.T) {
	tests := map[TimeOfDay]string{
		NewTimeOfDay(0, 5):   "12:05 AM",
		NewTimeOfDay(7, 0):   "07:00 AM",
		NewTimeOfDay(12, 0):  "12:00 PM",
		NewTimeOfDay(17, 40): "05:40 PM",
	}
	for input, want := range tests {
		if got := input.String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	var leg struct {
		At TimeOfDay `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":"06:30 PM"}`), &leg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if leg.At != NewTimeOfDay(18, 30) {
		t.Fatalf("expected 18:30, got %d", leg.At)
	}
	out, err := json.Marshal(leg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"at":"06:30 PM"}` {
		t.Errorf("unexpected json %s", out)
	}
}
