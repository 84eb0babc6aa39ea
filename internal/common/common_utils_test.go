package common

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                "0:00:00",
		90 * time.Second: "0:01:30",
		time.Hour + 2*time.Minute + 3500*time.Millisecond: "1:02:03",
		-5 * time.Second: "0:00:00",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestCacheService_GetInto(t *testing.T) {
	cs := NewCacheService(60, 120)

	type rank struct {
		IsMember bool   `json:"is_member"`
		RankName string `json:"rank_name"`
	}
	cs.Set("k", rank{IsMember: true, RankName: "Sergeant"}, time.Minute)

	var got rank
	if !cs.GetInto("k", &got) {
		t.Fatal("Expected cache hit")
	}
	if !got.IsMember || got.RankName != "Sergeant" {
		t.Errorf("Unexpected value %+v", got)
	}

	if cs.GetInto("missing", &got) {
		t.Error("Expected miss for unknown key")
	}
}
