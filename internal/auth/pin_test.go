package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/opsboard/internal/models"
)

func init() {
	hashCost = bcrypt.MinCost
}

func TestValidateNewPIN(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		confirm string
		want    error
	}{
		{"valid", "1234", "1234", nil},
		{"valid long", "123456789012", "123456789012", nil},
		{"surrounding space", " 4321 ", "4321", nil},
		{"empty", "", "", ErrPINRequired},
		{"too short", "123", "123", ErrPINTooShort},
		{"too long", "1234567890123", "1234567890123", ErrPINTooLong},
		{"letters", "12a4", "12a4", ErrPINNotDigits},
		{"mismatch", "1234", "1235", ErrPINMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewPIN(tt.pin, tt.confirm)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateNewPIN(%q, %q) = %v, want %v", tt.pin, tt.confirm, err, tt.want)
			}
		})
	}
}

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPIN("2468", "2468")
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if hash == "2468" {
		t.Fatal("HashPIN returned the plain PIN")
	}
	if err := CheckPIN(hash, "2468"); err != nil {
		t.Errorf("CheckPIN(correct) = %v", err)
	}
	if err := CheckPIN(hash, "8642"); !errors.Is(err, ErrInvalidPIN) {
		t.Errorf("CheckPIN(wrong) = %v, want %v", err, ErrInvalidPIN)
	}
	if err := CheckPIN(hash, ""); !errors.Is(err, ErrPINRequired) {
		t.Errorf("CheckPIN(empty) = %v, want %v", err, ErrPINRequired)
	}

	if _, err := HashPIN("12", "12"); !errors.Is(err, ErrPINTooShort) {
		t.Errorf("HashPIN(short) = %v, want %v", err, ErrPINTooShort)
	}
}

func TestVerifySupervisor(t *testing.T) {
	if err := VerifySupervisor(models.Settings{}, "1234"); !errors.Is(err, ErrSupervisorPINUnset) {
		t.Errorf("VerifySupervisor without hash = %v, want %v", err, ErrSupervisorPINUnset)
	}

	hash, err := HashPIN("9999", "9999")
	if err != nil {
		t.Fatal(err)
	}
	settings := models.Settings{SupervisorPINHash: hash}
	if err := VerifySupervisor(settings, "9999"); err != nil {
		t.Errorf("VerifySupervisor(correct) = %v", err)
	}
	if err := VerifySupervisor(settings, "0000"); !errors.Is(err, ErrInvalidPIN) {
		t.Errorf("VerifySupervisor(wrong) = %v, want %v", err, ErrInvalidPIN)
	}
}

func TestVerifyOperator(t *testing.T) {
	open := models.Profile{Username: "ana", Name: "Ana"}
	if err := VerifyOperator(open, ""); err != nil {
		t.Errorf("operator without PIN should pass, got %v", err)
	}

	hash, err := HashPIN("1357", "1357")
	if err != nil {
		t.Fatal(err)
	}
	locked := models.Profile{Username: "ben", Name: "Ben", PINHash: hash}
	if err := VerifyOperator(locked, "1357"); err != nil {
		t.Errorf("VerifyOperator(correct) = %v", err)
	}
	if err := VerifyOperator(locked, ""); !errors.Is(err, ErrPINRequired) {
		t.Errorf("VerifyOperator(empty) = %v, want %v", err, ErrPINRequired)
	}
}
