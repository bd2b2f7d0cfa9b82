// Package passhash wraps bcrypt for credential storage. bcrypt is
// deliberately slow and self-salting: two hashes of the same password
// differ, and Verify still matches both.
package passhash

import "golang.org/x/crypto/bcrypt"

func Hash(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// Verify reports whether plain produced hash. A malformed hash value
// verifies as false rather than erroring out.
func Verify(plain string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}
