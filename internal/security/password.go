// Package security wraps the two primitives the relay needs outside of the
// wire protocol itself: password verification and opaque token generation.
package security

import "golang.org/x/crypto/bcrypt"

// passwordCost lands the verifier around 100-250ms per check on typical
// hardware, matching the target in the data model.
const passwordCost = 12

// HashPassword produces a salted verifier suitable for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. It does not
// short-circuit on shape mismatches beyond what bcrypt itself does, so every
// candidate costs the same amount of work.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
