package ready

import "testing"

func TestLineParseRoundTrip(t *testing.T) {
	port, ok := ParseLine(Line(38471))
	if !ok || port != 38471 {
		t.Fatalf("round trip failed: port=%d ok=%v", port, ok)
	}
}

func TestParseLineIgnoresNoise(t *testing.T) {
	cases := []string{
		"",
		"conductor booting",
		"###ADMIN_PORT:###",
		"###ADMIN_PORT:notaport###",
		"###ADMIN_PORT:70000###",
		"###ADMIN_PORT:123",
	}
	for _, line := range cases {
		if _, ok := ParseLine(line); ok {
			t.Fatalf("unexpected parse of %q", line)
		}
	}
}

func TestParseLineEmbeddedInLogLine(t *testing.T) {
	port, ok := ParseLine("12:00:01 INF conductor ready ###ADMIN_PORT:9123### setup=/tmp/x")
	if !ok || port != 9123 {
		t.Fatalf("embedded parse failed: port=%d ok=%v", port, ok)
	}
}
