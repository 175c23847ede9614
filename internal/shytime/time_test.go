package shytime

import "testing"

func TestParsePointRoundTrip(t *testing.T) {
	p, err := ParsePoint("202501240400")
	if err != nil {
		t.Fatalf("ParsePoint: %v", err)
	}
	if got, want := Format(p, "%Y%m%d%H%M"), "202501240400"; got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestRangeSeq(t *testing.T) {
	start, _ := ParsePoint("2025-01-01")
	end, _ := ParsePoint("2025-01-03")
	r := NewRange(start, end, Daily)
	seq := r.Seq()
	if len(seq) != 3 {
		t.Fatalf("len(seq) = %d, want 3", len(seq))
	}
	if !seq[0].Equal(start) || !seq[len(seq)-1].Equal(end) {
		t.Errorf("seq bounds = %v..%v, want %v..%v", seq[0], seq[len(seq)-1], start, end)
	}
}

func TestRangeEmpty(t *testing.T) {
	start, _ := ParsePoint("2025-01-03")
	end, _ := ParsePoint("2025-01-01")
	r := NewRange(start, end, Daily)
	if !r.Empty() {
		t.Fatal("expected inverted range to be Empty")
	}
	if seq := r.Seq(); seq != nil {
		t.Errorf("Seq() = %v, want nil", seq)
	}
}

func TestEndPlusOne(t *testing.T) {
	start, _ := ParsePoint("2025-01-01")
	end, _ := ParsePoint("2025-01-03")
	r := NewRange(start, end, Daily)
	want, _ := ParsePoint("2025-01-04")
	if got := r.EndPlusOne(); !got.Equal(want) {
		t.Errorf("EndPlusOne = %v, want %v", got, want)
	}
}
