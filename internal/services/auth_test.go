package services

import "testing"

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)

	if _, err := users.Create(&CreateUserRequest{Email: "a@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := auth.Login(&LoginRequest{Email: "a@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !ok.Success || ok.User == nil {
		t.Error("valid credentials should succeed")
	}

	bad, err := auth.Login(&LoginRequest{Email: "a@example.com", Password: "wrong"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if bad.Success {
		t.Error("wrong password should fail")
	}

	// Unknown email yields the same message as a wrong password
	unknown, err := auth.Login(&LoginRequest{Email: "ghost@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if unknown.Success {
		t.Error("unknown email should fail")
	}
	if unknown.Message != bad.Message {
		t.Errorf("failure messages differ: %q vs %q", unknown.Message, bad.Message)
	}
}
