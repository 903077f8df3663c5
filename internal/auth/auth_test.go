package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("password stored in the clear")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT(42, "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d", uid)
	}

	if _, err := ParseJWT(token, "other-secret"); err != ErrInvalidToken {
		t.Fatalf("wrong secret: got %v", err)
	}
	if _, err := ParseJWT("garbage", "secret"); err != ErrInvalidToken {
		t.Fatalf("garbage token: got %v", err)
	}
}

func TestJWTExpiry(t *testing.T) {
	token, err := SignJWT(1, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err != ErrInvalidToken {
		t.Fatalf("expired token accepted: %v", err)
	}
}
