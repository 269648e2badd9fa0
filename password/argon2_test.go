package password

import (
	"strings"
	"testing"
)

// fastParams keeps test hashing cheap while staying above the enforced
// minimums.
func fastParams() Params {
	return Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newFastHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newFastHasher(t)

	hash, err := h.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected verification to succeed")
	}

	ok, err = h.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := newFastHasher(t)

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyRejectsMalformedEncodings(t *testing.T) {
	h := newFastHasher(t)

	malformed := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}

	for _, enc := range malformed {
		if _, err := h.Verify("whatever", enc); err == nil {
			t.Fatalf("malformed encoding accepted: %q", enc)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := NewHasher(fastParams())
	if err != nil {
		t.Fatal(err)
	}
	hash, err := weak.Hash("some-password")
	if err != nil {
		t.Fatal(err)
	}

	upgrade, err := weak.NeedsRehash(hash)
	if err != nil {
		t.Fatal(err)
	}
	if upgrade {
		t.Fatal("hash at current cost flagged for rehash")
	}

	stronger := fastParams()
	stronger.Time = 2
	h2, err := NewHasher(stronger)
	if err != nil {
		t.Fatal(err)
	}

	upgrade, err = h2.NeedsRehash(hash)
	if err != nil {
		t.Fatal(err)
	}
	if !upgrade {
		t.Fatal("hash below current cost not flagged for rehash")
	}

	// Old stronger hashes must keep verifying under new params.
	ok, err := h2.Verify("some-password", hash)
	if err != nil || !ok {
		t.Fatalf("cross-cost verify failed: ok=%v err=%v", ok, err)
	}
}

func TestNewHasherRejectsWeakParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"memory", func(p *Params) { p.Memory = 1024 }},
		{"time", func(p *Params) { p.Time = 0 }},
		{"parallelism", func(p *Params) { p.Parallelism = 0 }},
		{"salt", func(p *Params) { p.SaltLength = 8 }},
		{"key", func(p *Params) { p.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := fastParams()
			tc.mutate(&p)
			if _, err := NewHasher(p); err == nil {
				t.Fatal("weak params accepted")
			}
		})
	}
}
