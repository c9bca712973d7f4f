package randx

import (
	"strings"
	"testing"
)

func TestUserIDIsValid(t *testing.T) {
	id := UserID()

	if !strings.HasPrefix(id, GuestIDPrefix) {
		t.Errorf("UserID should carry the guest prefix, got %s", id)
	}
	if !IsValidUserID(id) {
		t.Errorf("Generated UserID should validate, got %s", id)
	}
}

func TestIsValidUserIDRejectsArbitraryStrings(t *testing.T) {
	cases := []string{"", "admin", "guest_", "guest_notauuid", "123e4567-e89b-12d3-a456-426614174000"}
	for _, id := range cases {
		if IsValidUserID(id) {
			t.Errorf("IsValidUserID(%q) should be false", id)
		}
	}
}

func TestIsValidRoomID(t *testing.T) {
	valid := []string{"lobby", "my-room", "room_42", "A", strings.Repeat("x", MaxRoomIDLength)}
	for _, id := range valid {
		if !IsValidRoomID(id) {
			t.Errorf("IsValidRoomID(%q) should be true", id)
		}
	}

	invalid := []string{"", "bad room", "room!", "room/1", "räum", strings.Repeat("x", MaxRoomIDLength+1)}
	for _, id := range invalid {
		if IsValidRoomID(id) {
			t.Errorf("IsValidRoomID(%q) should be false", id)
		}
	}
}

func TestUserColorFromPalette(t *testing.T) {
	palette := make(map[string]struct{}, len(userColors))
	for _, c := range userColors {
		palette[c] = struct{}{}
	}

	for i := 0; i < 20; i++ {
		if _, ok := palette[UserColor()]; !ok {
			t.Fatalf("UserColor returned a color outside the palette")
		}
	}
}

func TestUserNameIsNonEmpty(t *testing.T) {
	for i := 0; i < 20; i++ {
		if UserName() == "" {
			t.Fatal("UserName should never be empty")
		}
	}
}
