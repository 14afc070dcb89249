package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewHasherEnforcesFloor(t *testing.T) {
	if got := NewHasher(4).Cost(); got != MinCost {
		t.Fatalf("cost = %d, want %d", got, MinCost)
	}
	if got := NewHasher(13).Cost(); got != 13 {
		t.Fatalf("cost = %d, want 13", got)
	}
}

func TestHashAndCheck(t *testing.T) {
	h := NewHasher(MinCost)

	hash, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != MinCost {
		t.Fatalf("stored cost = %d (%v), want %d", cost, err, MinCost)
	}
	if err := h.Check(hash, "Passw0rd!"); err != nil {
		t.Fatalf("check should pass: %v", err)
	}
	if err := h.Check(hash, "passw0rd!"); err == nil {
		t.Fatalf("check should fail for a different password")
	}
}
