package api

import "testing"

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0.00 B"},
		{512, "512.00 B"},
		{2048, "2.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.00 TB"},
	}
	for _, c := range cases {
		if got := formatBytes(c.size); got != c.want {
			t.Errorf("formatBytes(%d) = %q, want %q", c.size, got, c.want)
		}
	}
}

func TestFormatTimestampZero(t *testing.T) {
	if got := formatTimestamp(0); got != "" {
		t.Errorf("formatTimestamp(0) = %q, want empty", got)
	}
	if got := formatTimestamp(1700000000); len(got) != len("2006-01-02 15:04:05") {
		t.Errorf("unexpected timestamp layout: %q", got)
	}
}
