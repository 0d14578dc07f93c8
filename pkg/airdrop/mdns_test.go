package airdrop

import "testing"

func TestFirstLabel(t *testing.T) {
	cases := map[string]string{
		"aabbccddeeff._airdrop._tcp.local.": "aabbccddeeff",
		"aabbccddeeff":                      "aabbccddeeff",
		"":                                  "",
	}
	for in, want := range cases {
		if got := firstLabel(in); got != want {
			t.Errorf("firstLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFlagsTXT(t *testing.T) {
	flags, present := parseFlagsTXT([]string{"flags=506"})
	if !present || flags != 506 {
		t.Errorf("parseFlagsTXT = (%d, %v), want (506, true)", flags, present)
	}

	flags, present = parseFlagsTXT([]string{"other=1"})
	if present {
		t.Errorf("parseFlagsTXT with no flags key should report present=false, got flags=%d", flags)
	}

	flags, present = parseFlagsTXT(nil)
	if present || flags != 0 {
		t.Errorf("parseFlagsTXT(nil) = (%d, %v), want (0, false)", flags, present)
	}

	flags, present = parseFlagsTXT([]string{"flags=not-a-number"})
	if present {
		t.Error("parseFlagsTXT with unparsable value should report present=false")
	}
}

func TestServiceIDPattern(t *testing.T) {
	valid := []string{"aabbccddeeff", "000000000000", "ffffffffffff"}
	for _, v := range valid {
		if !serviceIDPattern.MatchString(v) {
			t.Errorf("expected %q to match the service id pattern", v)
		}
	}

	invalid := []string{"AABBCCDDEEFF", "short", "aabbccddeeff.local", ""}
	for _, v := range invalid {
		if serviceIDPattern.MatchString(v) {
			t.Errorf("expected %q not to match the service id pattern", v)
		}
	}
}
