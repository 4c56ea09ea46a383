package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokens_IssueVerify(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tk := &Tokens{Secret: []byte("s3cret"), TTL: time.Hour, Now: func() time.Time { return now }}

	raw, err := tk.Issue(Identity{UserID: 7, Role: RoleAdmin, Email: "a@b.c", Name: "A"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := tk.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.UserID != 7 || !c.IsAdmin() || c.Email != "a@b.c" {
		t.Fatalf("claims=%+v", c)
	}

	other := &Tokens{Secret: []byte("other"), TTL: time.Hour, Now: tk.Now}
	if _, err := other.Verify(raw); err == nil {
		t.Fatal("verified with the wrong secret")
	}
	later := &Tokens{Secret: tk.Secret, TTL: time.Hour, Now: func() time.Time { return now.Add(2 * time.Hour) }}
	if _, err := later.Verify(raw); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestPasswords(t *testing.T) {
	t.Parallel()
	p := Passwords{Cost: 4}
	h, err := p.Hash("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := p.Check(h, "hunter2"); !ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if ok, _ := p.Check(h, "wrong"); ok {
		t.Fatal("wrong password accepted")
	}
	if ok, err := p.Check("plain", "plain"); ok || err != nil {
		t.Fatalf("malformed hash: ok=%v err=%v", ok, err)
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	tk := NewTokens("s3cret", time.Hour)
	customer, _ := tk.Issue(Identity{UserID: 1, Role: RoleCustomer})
	admin, _ := tk.Issue(Identity{UserID: 2, Role: RoleAdmin})

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := FromContext(r.Context())
		if c == nil {
			t.Error("claims missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := Authenticate(tk)(RequireAdmin(ok))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusForbidden},
		{"customer", "Bearer " + customer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusNoContent},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Errorf("%s: status=%d body=%s", c.name, rec.Code, rec.Body.String())
		}
	}
}
