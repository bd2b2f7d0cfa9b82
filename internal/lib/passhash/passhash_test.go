package passhash

import "testing"

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !Verify("Sup3rSecret", hash) {
		t.Fatalf("expected original password to verify")
	}
	if Verify("wrong-password", hash) {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestHash_SaltedOutputsDiffer(t *testing.T) {
	t.Parallel()

	h1, err := Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, err := Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if string(h1) == string(h2) {
		t.Fatalf("expected salted hashes to differ")
	}
	if !Verify("Sup3rSecret", h1) || !Verify("Sup3rSecret", h2) {
		t.Fatalf("expected both hashes to verify")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	if Verify("anything", []byte("not-a-bcrypt-hash")) {
		t.Fatalf("expected malformed hash to verify as false")
	}
}
