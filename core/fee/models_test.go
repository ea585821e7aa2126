package fee

import "testing"

func TestParseLookback(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Lookback
		wantErr bool
	}{
		{name: "empty defaults to last-entry", in: "", want: LookbackLastEntry},
		{name: "last-entry", in: "last-entry", want: LookbackLastEntry},
		{name: "full-history", in: "full-history", want: LookbackFullHistory},
		{name: "mixed case", in: " Full-History ", want: LookbackFullHistory},
		{name: "unknown", in: "lol", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLookback(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLookback() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLookback() = %v, want %v", got, tt.want)
			}
		})
	}
}
