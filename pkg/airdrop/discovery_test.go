package airdrop

import "testing"

func TestTableUpsertGetRemove(t *testing.T) {
	table := NewTable()

	r := &ServiceRecord{ServiceID: "aabbccddeeff", Name: "Peer"}
	table.Upsert(r)

	got, ok := table.Get("aabbccddeeff")
	if !ok || got.Name != "Peer" {
		t.Fatalf("Get after Upsert = (%+v, %v), want Peer record present", got, ok)
	}

	table.Remove("aabbccddeeff")
	if _, ok := table.Get("aabbccddeeff"); ok {
		t.Fatal("expected record to be gone after Remove")
	}
}

func TestTableSnapshotIsACopy(t *testing.T) {
	table := NewTable()
	table.Upsert(&ServiceRecord{ServiceID: "a", Name: "A"})
	table.Upsert(&ServiceRecord{ServiceID: "b", Name: "B"})

	snap := table.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}

	table.Remove("a")
	if len(snap) != 2 {
		t.Fatal("mutating the table after Snapshot must not affect the already-taken snapshot")
	}
}
