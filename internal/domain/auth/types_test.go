package auth

import (
	"testing"
	"time"
)

func TestSession_IsGuest(t *testing.T) {
	s := Session{Role: RoleGuest}
	if !s.IsGuest() {
		t.Fatalf("expected guest")
	}
	if (Session{Role: RoleUser}).IsGuest() {
		t.Fatalf("did not expect guest")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":  RoleAdmin,
		"user":   RoleUser,
		"guest":  RoleGuest,
		"":       RoleGuest,
		"ADMIN":  RoleGuest,
		"editor": RoleGuest,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStateOf(t *testing.T) {
	if st := StateOf(nil); st.Authenticated || st.Loading {
		t.Fatalf("nil session should be anonymous: %+v", st)
	}

	sess := &Session{ID: "s", Role: RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
	st := StateOf(sess)
	if !st.Authenticated || st.Loading || !st.IsAdmin() {
		t.Fatalf("unexpected state: %+v", st)
	}

	if !Pending().Loading || Pending().Authenticated {
		t.Fatalf("pending state should be loading and unauthenticated")
	}
	if (State{Authenticated: false, Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("unauthenticated state must never be admin")
	}
}
