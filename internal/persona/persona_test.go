package persona

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTypeNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want Type
	}{
		{`"Primary"`, TypePrimary},
		{`"primary"`, TypePrimary},
		{`"Secondary"`, TypeSecondary},
		{`"SECONDARY persona"`, TypeSecondary},
		{`"Tertiary"`, TypeTertiary},
		{`"something else"`, TypePrimary},
		{`42`, TypePrimary},
	}

	for _, tc := range cases {
		var got Type
		if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("type %s: got %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStringListShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want StringList
	}{
		{"array", `["a","b"]`, StringList{"a", "b"}},
		{"single string", `"convenience"`, StringList{"convenience"}},
		{"empty string", `""`, nil},
		{"null", `null`, nil},
		{"object", `{"no":"list"}`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got StringList
			if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStringListJoin(t *testing.T) {
	l := StringList{"quality", "speed", "price"}
	if l.Join() != "quality; speed; price" {
		t.Errorf("join mismatch: %q", l.Join())
	}
	var empty StringList
	if empty.Join() != "" {
		t.Errorf("empty join should be empty, got %q", empty.Join())
	}
}

func TestPersonaDecodeMissingFields(t *testing.T) {
	// A minimal reply must still decode, with absent fields empty.
	raw := `{"persona_name":"Busy Founder","persona_type":"Primary"}`
	var p Persona
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Name != "Busy Founder" {
		t.Errorf("name: %q", p.Name)
	}
	if p.Demographics.AgeRange != "" || p.Quote != "" {
		t.Errorf("missing fields should be empty: %+v", p)
	}
	if len(p.Goals) != 0 {
		t.Errorf("missing goals should be empty, got %v", p.Goals)
	}
}
