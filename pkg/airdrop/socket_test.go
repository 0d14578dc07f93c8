package airdrop

import "testing"

func TestWithZone(t *testing.T) {
	cases := []struct {
		name  string
		host  string
		iface string
		want  string
	}{
		{"adds zone to bare ipv6 literal", "fe80::1", "en0", "fe80::1%en0"},
		{"leaves zone already present alone", "fe80::1%awdl0", "en0", "fe80::1%awdl0"},
		{"leaves ipv4 alone", "192.168.1.1", "en0", "192.168.1.1"},
		{"leaves hostname alone", "somehost.local", "en0", "somehost.local"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := withZone(tc.host, tc.iface); got != tc.want {
				t.Errorf("withZone(%q, %q) = %q, want %q", tc.host, tc.iface, got, tc.want)
			}
		})
	}
}

func TestNeedsPeerToPeerOption(t *testing.T) {
	if needsPeerToPeerOption("en0") {
		t.Error("en0 should never need the peer-to-peer socket option")
	}
	if needsPeerToPeerOption("awdl0") != platformSupportsPeerToPeerOption {
		t.Errorf("needsPeerToPeerOption(awdl0) = %v, want %v", needsPeerToPeerOption("awdl0"), platformSupportsPeerToPeerOption)
	}
}
