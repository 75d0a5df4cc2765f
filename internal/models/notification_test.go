package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseTargetKind(t *testing.T) {
	if kind, ok := ParseTargetKind("room"); !ok || kind != TargetRoom {
		t.Errorf("ParseTargetKind(room) = %v, %v", kind, ok)
	}
	if kind, ok := ParseTargetKind("message"); !ok || kind != TargetMessage {
		t.Errorf("ParseTargetKind(message) = %v, %v", kind, ok)
	}
	for _, bad := range []string{"", "user", "Room", "MESSAGE"} {
		if _, ok := ParseTargetKind(bad); ok {
			t.Errorf("ParseTargetKind(%q) should fail", bad)
		}
	}
}

func TestTargetRefValidate(t *testing.T) {
	valid := TargetRef{Kind: TargetMessage, ID: uuid.New()}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid ref rejected: %v", err)
	}

	if err := (TargetRef{Kind: "thread", ID: uuid.New()}).Validate(); err == nil {
		t.Error("unknown kind should be rejected")
	}
	if err := (TargetRef{Kind: TargetRoom}).Validate(); err == nil {
		t.Error("nil id should be rejected")
	}
}

func TestParseMemberRole(t *testing.T) {
	if role, ok := ParseMemberRole("member"); !ok || role != RoleMember {
		t.Errorf("ParseMemberRole(member) = %v, %v", role, ok)
	}
	if role, ok := ParseMemberRole("admin"); !ok || role != RoleAdmin {
		t.Errorf("ParseMemberRole(admin) = %v, %v", role, ok)
	}
	for _, bad := range []string{"", "owner", "Admin"} {
		if _, ok := ParseMemberRole(bad); ok {
			t.Errorf("ParseMemberRole(%q) should fail", bad)
		}
	}
}
