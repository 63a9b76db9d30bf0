package validate

import "testing"

func TestEmail(t *testing.T) {
	if _, ok := Email(" seller@shop.ht "); !ok {
		t.Fatal("expected valid email")
	}
	for _, bad := range []string{"", "no-at", "a@b", "a b@c.de"} {
		if _, ok := Email(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
	if _, ok := OptionalEmail(""); !ok {
		t.Fatal("empty optional email should pass")
	}
}

func TestQuery(t *testing.T) {
	if _, ok := Query(" a "); ok {
		t.Fatal("single char query accepted")
	}
	q, ok := Query("  JHY-17 ")
	if !ok || q != "JHY-17" {
		t.Fatalf("got %q %v", q, ok)
	}
}

func TestPasswords(t *testing.T) {
	if NewPassword("12345") {
		t.Fatal("5 chars accepted")
	}
	if !NewPassword("123456") {
		t.Fatal("6 chars rejected")
	}
	if Password("") {
		t.Fatal("empty login password accepted")
	}
}

func TestPhoneAndID(t *testing.T) {
	if _, ok := Phone("+509 3700-0000"); !ok {
		t.Fatal("phone rejected")
	}
	if _, ok := Phone("call me"); ok {
		t.Fatal("garbage phone accepted")
	}
	if _, ok := ID("../etc"); ok {
		t.Fatal("path accepted as id")
	}
}
