package models

import (
	"errors"
	"testing"

	"github.com/tallyhq/tally/internal/errs"
)

func TestParseMemberID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MemberID
		wantErr bool
	}{
		{name: "user id", input: "u_42", want: UserMember("42")},
		{name: "friend id", input: "f_abc", want: FriendMember("abc")},
		{name: "uuid user id", input: "u_550e8400-e29b-41d4-a716-446655440000", want: UserMember("550e8400-e29b-41d4-a716-446655440000")},
		{name: "no prefix", input: "42", wantErr: true},
		{name: "unknown prefix", input: "x_42", wantErr: true},
		{name: "empty user id", input: "u_", wantErr: true},
		{name: "empty friend id", input: "f_", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMemberID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMemberID(%q) should fail", tt.input)
				}
				var validation *errs.ValidationError
				if !errors.As(err, &validation) {
					t.Errorf("ParseMemberID(%q) error = %T, want ValidationError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMemberID(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMemberID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMemberIDStringRoundTrip(t *testing.T) {
	for _, member := range []MemberID{UserMember("7"), FriendMember("nina")} {
		parsed, err := ParseMemberID(member.String())
		if err != nil {
			t.Fatalf("ParseMemberID(%q) failed: %v", member.String(), err)
		}
		if parsed != member {
			t.Errorf("round trip of %v = %v", member, parsed)
		}
	}
}

func TestMemberIDLess(t *testing.T) {
	// Friend ids sort before user ids by wire form: "f_" < "u_".
	if !FriendMember("z").Less(UserMember("a")) {
		t.Error("f_z should sort before u_a")
	}
	if !UserMember("1").Less(UserMember("2")) {
		t.Error("u_1 should sort before u_2")
	}
}
