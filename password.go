package ipbauth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// HashScheme identifies which generation of IPB password storage a member
// row uses. The scheme is decided by the shape of the stored salt.
type HashScheme int

const (
	// SchemeModern is IPB 4.4+: self describing bcrypt hash, no salt column
	SchemeModern HashScheme = iota
	// SchemeBlowfish13 is IPB 4.0-4.3: bcrypt cost 13 with a 22 char salt column
	SchemeBlowfish13
	// SchemeLegacyMD5 is IPB 3.x: md5(md5(salt) . md5(cleaned password))
	SchemeLegacyMD5
)

// legacyBcryptCost is the cost factor IPB 4.0 hard coded
const legacyBcryptCost = 13

const legacyBcryptSaltLen = 22

const bcryptAlphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func (s HashScheme) String() string {
	switch s {
	case SchemeModern:
		return "modern"
	case SchemeBlowfish13:
		return "blowfish13"
	case SchemeLegacyMD5:
		return "legacy-md5"
	default:
		return "unknown"
	}
}

// SchemeForSalt selects the hash scheme for a stored salt
func SchemeForSalt(salt *string) HashScheme {
	switch {
	case salt == nil:
		return SchemeModern
	case utf8.RuneCountInString(*salt) == legacyBcryptSaltLen:
		return SchemeBlowfish13
	default:
		return SchemeLegacyMD5
	}
}

// VerifyPassword reports whether password matches the stored hash. A
// mismatch, including an unparsable hash, is reported as false.
func VerifyPassword(password, hash string, salt *string) bool {
	switch SchemeForSalt(salt) {
	case SchemeModern:
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	case SchemeBlowfish13:
		return verifyBlowfish13(password, hash, *salt)
	default:
		return constantTimeEqual(LegacyHash(password, *salt), hash)
	}
}

// VerifyPasswordStrict behaves like VerifyPassword but reports a missing
// stored hash as ErrMalformedHash.
func VerifyPasswordStrict(password, hash string, salt *string) (bool, error) {
	if hash == "" {
		return false, ErrMalformedHash
	}
	return VerifyPassword(password, hash, salt), nil
}

// verifyBlowfish13 is equivalent to comparing crypt(password, "$2a$13$"+salt)
// with the stored hash: the stored hash must carry that setting and the
// digest is recomputed from it.
func verifyBlowfish13(password, hash, salt string) bool {
	setting, ok := bcryptSetting(salt)
	if !ok {
		return false
	}
	if len(hash) <= len(setting) || !constantTimeEqual(hash[:len(setting)], setting) {
		return false
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != legacyBcryptCost {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// bcryptSetting builds the setting crypt would emit for salt. The last salt
// character only carries two bits, so crypt writes it back in canonical form.
func bcryptSetting(salt string) (string, bool) {
	if len(salt) != legacyBcryptSaltLen {
		return "", false
	}
	for i := 0; i < len(salt); i++ {
		if strings.IndexByte(bcryptAlphabet, salt[i]) < 0 {
			return "", false
		}
	}

	last := strings.IndexByte(bcryptAlphabet, salt[len(salt)-1])
	return "$2a$13$" + salt[:len(salt)-1] + string(bcryptAlphabet[last&0x30]), true
}

// LegacyHash computes the IPB 3.x password hash for password and salt
func LegacyHash(password, salt string) string {
	return md5Hex(md5Hex(salt) + md5Hex(Sanitize(password)))
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
