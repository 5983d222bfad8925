package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{name: "valid", in: "2024-01-10", want: NewDate(2024, time.January, 10)},
		{name: "leap day", in: "2024-02-29", want: NewDate(2024, time.February, 29)},
		{name: "empty", in: "", wantErr: true},
		{name: "wrong layout", in: "10/01/2024", wantErr: true},
		{name: "datetime", in: "2024-01-10T00:00:00Z", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.January, 10)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2024-01-10"` {
		t.Errorf("Marshal() = %s, want %q", data, "2024-01-10")
	}

	var got Date
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !got.Equal(d) {
		t.Errorf("Unmarshal() = %v, want %v", got, d)
	}

	if err := json.Unmarshal([]byte(`"lol"`), &got); err == nil {
		t.Error("Unmarshal() expected an error for a malformed date")
	}
}

func TestDate_AddDays(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	if got := d.AddDays(1); !got.Equal(NewDate(2024, time.February, 29)) {
		t.Errorf("AddDays(1) = %v, want 2024-02-29", got)
	}
	if got := d.AddDays(2); !got.Equal(NewDate(2024, time.March, 1)) {
		t.Errorf("AddDays(2) = %v, want 2024-03-01", got)
	}
	if got := NewDate(2024, time.January, 1).AddDays(-1); !got.Equal(NewDate(2023, time.December, 31)) {
		t.Errorf("AddDays(-1) = %v, want 2023-12-31", got)
	}
}
