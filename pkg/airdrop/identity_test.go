package airdrop

import (
	"testing"
)

func TestLoadOrCreateIdentityGeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()

	id, err := LoadOrCreateIdentity(dir, "", "Test Mac", "PC/Go", "en0")
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity: %v", err)
	}
	if len(id.ServiceID) != 12 {
		t.Errorf("ServiceID = %q, want 12 hex digits", id.ServiceID)
	}
	if len(id.leafCertificate.Certificate) == 0 {
		t.Fatal("expected a leaf certificate to be generated")
	}

	// Loading again from the same directory must reuse the persisted key
	// pair rather than generating a new one.
	again, err := LoadOrCreateIdentity(dir, id.ServiceID, "Test Mac", "PC/Go", "en0")
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity (second load): %v", err)
	}
	if again.ServiceID != id.ServiceID {
		t.Errorf("ServiceID changed across reloads: %q != %q", again.ServiceID, id.ServiceID)
	}
	if string(again.leafCertificate.Certificate[0]) != string(id.leafCertificate.Certificate[0]) {
		t.Error("certificate changed across reloads; expected the persisted one to be reused")
	}
}

func TestRandomServiceIDIsLowercaseHex(t *testing.T) {
	id, err := randomServiceID()
	if err != nil {
		t.Fatalf("randomServiceID: %v", err)
	}
	if len(id) != 12 {
		t.Fatalf("len(id) = %d, want 12", len(id))
	}
	for _, r := range id {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Fatalf("id %q contains non-lowercase-hex character %q", id, r)
		}
	}
}
