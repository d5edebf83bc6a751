package upload

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 512, "512 B"},
		{"last whole byte", 1023, "1023 B"},
		{"exactly one KB", 1024, "1.00 KB"},
		{"fractional KB", 1536, "1.50 KB"},
		{"exactly one MB", 1024 * 1024, "1.00 MB"},
		{"five MB", 5 * 1024 * 1024, "5.00 MB"},
		{"fractional MB", 5*1024*1024 + 512*1024, "5.50 MB"},
		{"exactly one GB", 1024 * 1024 * 1024, "1.00 GB"},
		{"fractional GB", 3 * 1024 * 1024 * 1024 / 2, "1.50 GB"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatBytes(tc.n); got != tc.want {
				t.Fatalf("formatBytes(%d) = %q, want %q", tc.n, got, tc.want)
			}
		})
	}
}

func TestMegabytes(t *testing.T) {
	if got := megabytes(5); got != 5*1024*1024 {
		t.Fatalf("megabytes(5) = %d, want %d", got, 5*1024*1024)
	}
	if got := megabytes(0.5); got != 512*1024 {
		t.Fatalf("megabytes(0.5) = %d, want %d", got, 512*1024)
	}
}
