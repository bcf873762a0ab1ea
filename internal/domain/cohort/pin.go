package cohort

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPINLength is the shortest confirmation PIN HashPIN accepts.
const MinPINLength = 4

var ErrPINTooShort = errors.New("cohort PIN must be at least 4 characters")

// HashPIN hashes a cohort confirmation PIN for the profiles file.
// PRE: pin has at least MinPINLength characters
// POST: Returns a bcrypt hash (cost 12)
func HashPIN(pin string) (string, error) {
	if len(strings.TrimSpace(pin)) < MinPINLength {
		return "", ErrPINTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// PINVerifier checks a cohort's confirmation PIN against the hash held in
// the registry. It is the authorization predicate handed to the transition
// confirmation step.
type PINVerifier struct {
	reg *Registry
}

// NewPINVerifier creates a verifier over reg.
func NewPINVerifier(reg *Registry) *PINVerifier {
	return &PINVerifier{reg: reg}
}

// Verify reports whether secret is the PIN of cohortID.
// Unknown cohorts and cohorts without a configured hash never verify.
// INVARIANT: registry is not mutated
func (v *PINVerifier) Verify(cohortID, secret string) bool {
	p, err := v.reg.Get(cohortID)
	if err != nil || p.PINHash == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(p.PINHash), []byte(secret)) == nil
}
