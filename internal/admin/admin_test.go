package admin

import (
	"testing"

	"github.com/lib/pq"
	"github.com/playmatatu/cuetable/internal/config"
	"github.com/playmatatu/cuetable/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyAdminToken(string(hash), "s3cret") {
		t.Error("Matching token rejected")
	}
	if VerifyAdminToken(string(hash), "wrong") {
		t.Error("Wrong token accepted")
	}
}

func TestIPAllowed(t *testing.T) {
	open := &models.AdminAccount{}
	if !IPAllowed(open, "10.0.0.1") {
		t.Error("Empty allow-list should accept any address")
	}

	locked := &models.AdminAccount{AllowedIPs: pq.StringArray{"10.0.0.1", "10.0.0.2"}}
	if !IPAllowed(locked, "10.0.0.2") {
		t.Error("Listed address rejected")
	}
	if IPAllowed(locked, "192.168.1.1") {
		t.Error("Unlisted address accepted")
	}
}

func TestApplyOverride(t *testing.T) {
	cfg := &config.Config{Damping: 0.8, WallRestitution: 0.9, MaxBodies: 64}

	cases := []struct {
		key, value string
		applied    bool
	}{
		{"physics_damping", "1.5", true},
		{"wall_restitution", "1.2", false}, // restitution above 1 would add energy
		{"wall_restitution", "0.75", true},
		{"max_bodies", "32", true},
		{"max_bodies", "-1", false},
		{"max_bodies", "many", false},
		{"unknown_key", "1", false},
	}
	for _, tc := range cases {
		if got := ApplyOverride(cfg, tc.key, tc.value); got != tc.applied {
			t.Errorf("%s=%s: applied=%v, want %v", tc.key, tc.value, got, tc.applied)
		}
	}

	if cfg.Damping != 1.5 || cfg.WallRestitution != 0.75 || cfg.MaxBodies != 32 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
}

func TestValidateRuntimeValue(t *testing.T) {
	if err := ValidateRuntimeValue("float", "0.5"); err != nil {
		t.Errorf("valid float rejected: %v", err)
	}
	if err := ValidateRuntimeValue("int", "0.5"); err == nil {
		t.Error("float accepted as int")
	}
	if err := ValidateRuntimeValue("bool", "yes"); err == nil {
		t.Error("yes accepted as bool")
	}
}
