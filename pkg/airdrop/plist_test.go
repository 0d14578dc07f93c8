package airdrop

import "testing"

func TestBPlistRoundTrip(t *testing.T) {
	original := askRequest{
		SenderComputerName: "Jane's MacBook",
		SenderModelName:    "MacBookPro18,1",
		SenderID:           "aabbccddeeff",
		BundleID:           bundleID,
		Files: []askFile{
			{FileName: "photo.jpg", FileType: "public.jpeg"},
		},
	}

	encoded, err := encodeBPlist(original)
	if err != nil {
		t.Fatalf("encodeBPlist: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("encodeBPlist produced no bytes")
	}

	var decoded askRequest
	if err := decodeBPlist(encoded, &decoded); err != nil {
		t.Fatalf("decodeBPlist: %v", err)
	}

	if decoded.SenderComputerName != original.SenderComputerName {
		t.Errorf("SenderComputerName = %q, want %q", decoded.SenderComputerName, original.SenderComputerName)
	}
	if len(decoded.Files) != 1 || decoded.Files[0].FileName != "photo.jpg" {
		t.Errorf("Files round-trip failed: %+v", decoded.Files)
	}
}

func TestDecodeBPlistRejectsGarbage(t *testing.T) {
	var out discoverResponse
	if err := decodeBPlist([]byte("not a plist"), &out); err == nil {
		t.Error("expected an error decoding non-plist bytes")
	}
}
