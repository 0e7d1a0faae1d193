package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Config{Cost: bcrypt.MinCost} // keep the test fast

	for _, pw := range []string{"pw", "123456", "correct horse battery staple", "päss wörd"} {
		digest, err := cfg.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if digest == pw {
			t.Fatalf("digest must not equal plaintext")
		}

		ok, err := Verify(pw, digest)
		if err != nil || !ok {
			t.Fatalf("Verify(%q) = %v, %v; want true, nil", pw, ok, err)
		}

		ok, err = Verify(pw+"x", digest)
		if err != nil || ok {
			t.Fatalf("Verify(wrong) = %v, %v; want false, nil", ok, err)
		}
	}
}

func TestHash_RejectsEmptyAndOversized(t *testing.T) {
	t.Parallel()

	cfg := Config{Cost: bcrypt.MinCost}

	if _, err := cfg.Hash(""); err != ErrPasswordEmpty {
		t.Fatalf("empty password: err=%v, want ErrPasswordEmpty", err)
	}
	if _, err := cfg.Hash(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Fatalf("oversized password: err=%v, want ErrPasswordTooLong", err)
	}
}

func TestVerify_EmptyDigestNeverMatches(t *testing.T) {
	t.Parallel()

	// Federated identities carry an empty hash; local login must always fail.
	ok, err := Verify("anything", "")
	if err != nil || ok {
		t.Fatalf("Verify against empty digest = %v, %v; want false, nil", ok, err)
	}
}

func TestVerify_MalformedDigest(t *testing.T) {
	t.Parallel()

	ok, err := Verify("pw", "not-a-bcrypt-hash")
	if ok {
		t.Fatalf("malformed digest must not verify")
	}
	if err != ErrInvalidHash {
		t.Fatalf("err=%v, want ErrInvalidHash", err)
	}
}

func TestFromEnv_ClampsBadCost(t *testing.T) {
	t.Setenv("MOSAIC_PASSWORD_BCRYPT_COST", "99")
	if got := FromEnv().Cost; got != DefaultConfig().Cost {
		t.Fatalf("cost=%d, want default %d for out-of-range env", got, DefaultConfig().Cost)
	}

	t.Setenv("MOSAIC_PASSWORD_BCRYPT_COST", "12")
	if got := FromEnv().Cost; got != 12 {
		t.Fatalf("cost=%d, want 12", got)
	}
}
