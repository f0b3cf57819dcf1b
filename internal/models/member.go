package models

import (
	"strings"

	"github.com/tallyhq/tally/internal/errs"
)

// MemberKind distinguishes registered users from unregistered friend
// placeholders.
type MemberKind string

const (
	// KindUser identifies a registered user account.
	KindUser MemberKind = "user"

	// KindFriend identifies an unregistered placeholder added to a group
	// by name, before (or instead of) the person signing up.
	KindFriend MemberKind = "friend"
)

// MemberID identifies a group member: either a registered user or a friend
// placeholder. The zero value is invalid; construct one with UserMember,
// FriendMember, or ParseMemberID.
//
// The wire form is "u_<id>" for users and "f_<id>" for friends.
type MemberID struct {
	kind  MemberKind
	value string
}

// UserMember returns the MemberID for a registered user.
func UserMember(id string) MemberID {
	return MemberID{kind: KindUser, value: id}
}

// FriendMember returns the MemberID for an unregistered friend placeholder.
func FriendMember(id string) MemberID {
	return MemberID{kind: KindFriend, value: id}
}

// ParseMemberID parses the wire form "u_<id>" / "f_<id>". Any other shape
// is a ValidationError. This is the only place the prefix is interpreted.
func ParseMemberID(s string) (MemberID, error) {
	rest, ok := strings.CutPrefix(s, "u_")
	if ok {
		if rest == "" {
			return MemberID{}, errs.Validationf("member id %q has empty user id", s)
		}
		return UserMember(rest), nil
	}
	rest, ok = strings.CutPrefix(s, "f_")
	if ok {
		if rest == "" {
			return MemberID{}, errs.Validationf("member id %q has empty friend id", s)
		}
		return FriendMember(rest), nil
	}
	return MemberID{}, errs.Validationf("unknown member id shape %q: want u_<id> or f_<id>", s)
}

// Kind returns the member kind.
func (m MemberID) Kind() MemberKind { return m.kind }

// Value returns the raw user or friend id without the prefix.
func (m MemberID) Value() string { return m.value }

// IsZero reports whether m is the invalid zero value.
func (m MemberID) IsZero() bool { return m.value == "" }

// String returns the wire form "u_<id>" / "f_<id>".
func (m MemberID) String() string {
	switch m.kind {
	case KindFriend:
		return "f_" + m.value
	default:
		return "u_" + m.value
	}
}

// Less orders MemberIDs by their wire form, used for deterministic output.
func (m MemberID) Less(n MemberID) bool { return m.String() < n.String() }

func (m MemberID) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MemberID) UnmarshalText(text []byte) error {
	parsed, err := ParseMemberID(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
