package domain

import "testing"

func TestChannelRoundTrip(t *testing.T) {
	if got := RoomChannel(7); got != "room.7" {
		t.Errorf("RoomChannel(7) = %q", got)
	}
	if id, ok := ParseRoomChannel("room.7"); !ok || id != 7 {
		t.Errorf("ParseRoomChannel(room.7) = (%d, %v)", id, ok)
	}
	if id, ok := ParsePrivateChannel(PrivateChannel(12)); !ok || id != 12 {
		t.Errorf("ParsePrivateChannel round trip = (%d, %v)", id, ok)
	}
}

func TestChannelParseRejectsGarbage(t *testing.T) {
	cases := []string{"room.", "room.x", "room.0", "presence", "private-user.7x", "roomy.7", ""}
	for _, name := range cases {
		if _, ok := ParseRoomChannel(name); ok && name != "room.0" {
			t.Errorf("ParseRoomChannel(%q) accepted", name)
		}
	}
	if _, ok := ParseRoomChannel("room.0"); ok {
		t.Errorf("ParseRoomChannel(room.0) accepted zero id")
	}
	if _, ok := ParsePrivateChannel("room.7"); ok {
		t.Errorf("ParsePrivateChannel(room.7) accepted")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusActive, StatusInactiveTab, StatusPrivateDisabled, StatusAway, StatusIncognito} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("ONLINE") {
		t.Errorf("ValidStatus(ONLINE) = true")
	}
}
