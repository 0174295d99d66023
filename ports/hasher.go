package ports

// Hasher is the password-hash collaborator: a one-way hash and its
// verification, consumed as a black box by the admission flows.
type Hasher interface {
	Hash(plaintext string) (string, error)

	// Verify returns nil when plaintext matches the encoded digest.
	Verify(plaintext, encoded string) error
}
