package epoch

import "testing"

func TestFromCodeIsTotal(t *testing.T) {
	named := []NetworkEpochState{
		Active,
		NextValidatorSetLocked,
		ReadyForNextEpoch,
		Unlocked,
		Paused,
		Restore,
	}

	for code := 0; code <= 255; code++ {
		s := FromCode(uint8(code))
		if code < len(named) {
			if s != named[code] {
				t.Fatalf("code %d should map to %s, not %s", code, named[code], s)
			}
			continue
		}
		if s != Unknown {
			t.Fatalf("code %d should map to Unknown, not %s", code, s)
		}
	}
}

func TestStateString(t *testing.T) {
	cases := map[NetworkEpochState]string{
		Active:                 "Active",
		NextValidatorSetLocked: "NextValidatorSetLocked",
		ReadyForNextEpoch:      "ReadyForNextEpoch",
		Unlocked:               "Unlocked",
		Paused:                 "Paused",
		Restore:                "Restore",
		Unknown:                "Unknown",
		NetworkEpochState(42):  "Unknown",
	}

	for s, name := range cases {
		if s.String() != name {
			t.Fatalf("state %d should print %s, not %s", s, name, s.String())
		}
	}
}

func TestParseNetworkEpochState(t *testing.T) {
	for code := uint8(0); code <= 6; code++ {
		s := FromCode(code)

		parsed, err := ParseNetworkEpochState(s.String())
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if parsed != s {
			t.Fatalf("%s should parse back to itself, got %s", s, parsed)
		}
	}

	if s, _ := ParseNetworkEpochState("paused"); s != Paused {
		t.Fatalf("parsing should be case-insensitive")
	}
	if _, err := ParseNetworkEpochState("Frozen"); err == nil {
		t.Fatalf("unknown names should be rejected")
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		current, next bool
		expected      PeerValidatorStatus
	}{
		{false, true, Entering},
		{true, false, Exiting},
		{true, true, Survivor},
		{false, false, UnknownStatus},
	}

	for _, c := range cases {
		if got := StatusOf(c.current, c.next); got != c.expected {
			t.Fatalf("StatusOf(%v, %v) should be %s, not %s", c.current, c.next, c.expected, got)
		}
	}

	if PeerValidatorStatus(9).String() != "Unknown" {
		t.Fatalf("out of range statuses should print Unknown")
	}
}

func TestNextSetLocked(t *testing.T) {
	locked := map[NetworkEpochState]bool{
		Active:                 false,
		NextValidatorSetLocked: true,
		ReadyForNextEpoch:      true,
		Unlocked:               false,
		Paused:                 false,
		Restore:                false,
		Unknown:                false,
	}
	for s, exp := range locked {
		if s.NextSetLocked() != exp {
			t.Fatalf("%s.NextSetLocked() should be %t", s, exp)
		}
	}
}
