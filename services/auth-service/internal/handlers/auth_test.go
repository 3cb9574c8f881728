package handlers

import (
	"testing"
	"time"

	"github.com/agusroldan/turnospro/libs/auth"
	"github.com/agusroldan/turnospro/services/auth-service/internal/storage"
)

func TestPasswordHashing(t *testing.T) {
	password := "correcthorse"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestValidUserType(t *testing.T) {
	for _, typ := range []string{"employer", "client"} {
		if !validUserType(typ) {
			t.Errorf("expected %q to be valid", typ)
		}
	}
	for _, typ := range []string{"", "admin", "Employer", "owner"} {
		if validUserType(typ) {
			t.Errorf("expected %q to be rejected", typ)
		}
	}
}

func TestIssueJWTCarriesIdentity(t *testing.T) {
	signer := NewHS256Signer("test-secret")
	user := storage.User{
		ID:       "7f0a2c9e-8f6a-4d14-9e6e-0a1b2c3d4e5f",
		Email:    "ana@example.com",
		FullName: "Ana Gomez",
		UserType: "employer",
	}

	token, err := issueJWT(user, signer)
	if err != nil {
		t.Fatalf("issueJWT failed: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Sub != user.ID {
		t.Errorf("sub = %q, want %q", claims.Sub, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("email = %q, want %q", claims.Email, user.Email)
	}
	if claims.FullName != user.FullName {
		t.Errorf("full_name = %q, want %q", claims.FullName, user.FullName)
	}
	if claims.UserType != "employer" {
		t.Errorf("user_type = %q, want employer", claims.UserType)
	}
	if claims.Exp <= time.Now().Unix() {
		t.Error("token should expire in the future")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer := NewHS256Signer("test-secret")
	token, err := signer.Sign(auth.Claims{
		Sub:      "user-1",
		UserType: "client",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	other := NewHS256Signer("other-secret")
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}
