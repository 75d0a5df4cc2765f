package services

import (
	"testing"

	"github.com/google/uuid"
)

func TestDirectPairKeyOrderIndependent(t *testing.T) {
	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	if DirectPairKey(a, b) != DirectPairKey(b, a) {
		t.Errorf("pair key must not depend on argument order: %q vs %q",
			DirectPairKey(a, b), DirectPairKey(b, a))
	}
}

func TestDirectPairKeySortsLexically(t *testing.T) {
	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	want := a.String() + ":" + b.String()
	if got := DirectPairKey(b, a); got != want {
		t.Errorf("DirectPairKey = %q, want %q", got, want)
	}
}

func TestDirectPairKeyDistinctPairs(t *testing.T) {
	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	c := uuid.MustParse("cccccccc-0000-0000-0000-000000000000")

	if DirectPairKey(a, b) == DirectPairKey(a, c) {
		t.Error("different pairs must map to different keys")
	}
}
