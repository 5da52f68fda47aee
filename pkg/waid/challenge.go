package waid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/webasyst/webasyst-go/internal/constants"
)

// Challenge methods understood by WAID.
const (
	ChallengeMethodPlain  = "plain"
	ChallengeMethodSHA256 = "SHA256"
)

const challengeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// CodeChallenge is the proof key of the headless sign-in flow. Password is
// sent as code_verifier when the code is exchanged.
type CodeChallenge struct {
	Password string
	Encoded  string
	Method   string
}

type hashFunc func(password string) (string, error)

// NewCodeChallenge generates a random password of length characters from
// [a-z0-9]. A length of zero or less uses constants.CodeChallengeLength.
func NewCodeChallenge(length int) (CodeChallenge, error) {
	return newCodeChallenge(length, rand.Reader, challengeHash)
}

func newCodeChallenge(length int, random io.Reader, hash hashFunc) (CodeChallenge, error) {
	if length <= 0 {
		length = constants.CodeChallengeLength
	}

	password, err := randomPassword(random, length)
	if err != nil {
		return CodeChallenge{}, err
	}

	challenge := CodeChallenge{Password: password, Method: ChallengeMethodPlain}
	encoded := password

	if hashed, err := hash(password); err == nil {
		encoded = hashed
		challenge.Method = ChallengeMethodSHA256
	}

	challenge.Encoded = base64.StdEncoding.EncodeToString([]byte(encoded))

	return challenge, nil
}

// challengeHash is the lowercase hex SHA-256 of the password written twice.
// WAID verifies exactly this form, as issued by the existing mobile clients.
func challengeHash(password string) (string, error) {
	digest := sha256.New()
	digest.Write([]byte(password))
	digest.Write([]byte(password))

	return hex.EncodeToString(digest.Sum(nil)), nil
}

func randomPassword(random io.Reader, length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(challengeAlphabet)))
	password := make([]byte, length)

	for i := range password {
		n, err := rand.Int(random, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generating code challenge: %w", err)
		}

		password[i] = challengeAlphabet[n.Int64()]
	}

	return string(password), nil
}
