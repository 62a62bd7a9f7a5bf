package timecode

import "testing"

func TestFrameConversions(t *testing.T) {
	if s := FramesToSeconds(90, 30); s != 3 {
		t.Errorf("FramesToSeconds = %v", s)
	}
	if f := SecondsToFrames(1.5, 60); f != 90 {
		t.Errorf("SecondsToFrames = %v", f)
	}
	if f := SecondsToFrames(0.1*3, 10); f != 3 {
		t.Errorf("SecondsToFrames(0.3,10) = %v, want 3", f)
	}
	if s := FramesToSeconds(10, 0); s != 0 {
		t.Errorf("zero fps should give 0, got %v", s)
	}
}

func TestFormatTime(t *testing.T) {
	tests := map[float64]string{
		0:       "00:00:00.000",
		61.5:    "00:01:01.500",
		3725.25: "01:02:05.250",
	}
	for in, want := range tests {
		if got := FormatTime(in); got != want {
			t.Errorf("FormatTime(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"01:30", 90, false},
		{"01:00:02.5", 3602.5, false},
		{"90", 0, true},
		{"aa:bb", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTime = %v, want %v", got, tt.want)
			}
		})
	}
}
