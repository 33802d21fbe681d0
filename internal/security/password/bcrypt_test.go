package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Password@123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("not a bcrypt hash: %s", hash)
	}
	if !Verify("Password@123", hash) {
		t.Fatal("correct password rejected")
	}
	if Verify("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHash_Salted(t *testing.T) {
	h1, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("hashes should differ per call")
	}
}

func TestVerify_EmptyOrGarbageHash(t *testing.T) {
	if Verify("x", "") {
		t.Fatal("empty hash accepted")
	}
	if Verify("x", "not-a-hash") {
		t.Fatal("garbage hash accepted")
	}
}
