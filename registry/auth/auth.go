// Package auth implements Authorizer (spec.md §4.5): an opaque yes/no
// check on a presented bearer token. It is grounded in shape on the
// teacher's auth.AccessController (registry/auth/auth.go) — a
// single-method capability checked before every operation — but
// specialized to spec.md §7's guidance that Authorizer is a closed,
// tagged union rather than an open interface hierarchy, since no
// third-party authorizer is ever plugged in. The token-list mode is a
// supplement grounded on original_source's auth/token_list.rs (see
// SPEC_FULL.md §3).
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Result is the outcome of an authorization check.
type Result int

const (
	// Ok indicates the presented token (or lack of one, in disabled mode)
	// is accepted.
	Ok Result = iota
	// Unauthorized indicates no token was presented where one is required.
	Unauthorized
	// Forbidden indicates a token was presented but did not match.
	Forbidden
)

// mode selects which of the interchangeable checks an Authorizer
// performs.
type mode int

const (
	modeNone mode = iota
	modeToken
	modeTokenFile
	modeTokenList
)

// Authorizer checks a presented bearer token against one of four modes,
// configured at construction and immutable thereafter.
type Authorizer struct {
	mode      mode
	tokenHash [sha512.Size]byte   // modeToken: SHA-512 of the accepted token
	token     string              // modeTokenFile: the accepted token, read or generated at construction
	tokens    map[string]struct{} // modeTokenList: the set of accepted tokens
}

// Disabled returns an Authorizer that accepts every request, including
// ones with no Authorization header at all.
func Disabled() *Authorizer {
	return &Authorizer{mode: modeNone}
}

// StaticToken returns an Authorizer that accepts a single token, matched
// by comparing its SHA-512 hash against tokenHash (64 bytes, hex-encoded)
// in constant time.
func StaticToken(tokenHash string) (*Authorizer, error) {
	raw, err := hex.DecodeString(tokenHash)
	if err != nil {
		return nil, fmt.Errorf("auth: token hash is not valid hex: %w", err)
	}
	if len(raw) != sha512.Size {
		return nil, fmt.Errorf("auth: token hash must be %d bytes, got %d", sha512.Size, len(raw))
	}

	a := &Authorizer{mode: modeToken}
	copy(a.tokenHash[:], raw)
	return a, nil
}

// TokenFile returns an Authorizer backed by a token persisted at path. If
// the file does not exist, a new 64-byte random token is generated,
// base64-encoded, and written with owner-only permissions; on subsequent
// starts the existing token is read back unchanged.
func TokenFile(path string) (*Authorizer, error) {
	existing, err := os.ReadFile(path)
	if err == nil {
		return &Authorizer{mode: modeTokenFile, token: string(existing)}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("auth: reading token file %q: %w", path, err)
	}

	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("auth: generating token: %w", err)
	}
	token := base64.StdEncoding.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return nil, fmt.Errorf("auth: writing token file %q: %w", path, err)
	}
	return &Authorizer{mode: modeTokenFile, token: token}, nil
}

// TokenList returns an Authorizer backed by a fixed set of accepted
// tokens, for deployments that hand out one token per client instead of
// sharing a single secret. A request matches if its presented token is
// in the set, in constant time per candidate. An empty set is accepted
// but logs a warning, since no request will ever authorize against it.
func TokenList(tokens []string) (*Authorizer, error) {
	if len(tokens) == 0 {
		logrus.Warn("auth: tokenlist mode configured with no tokens; no request will be able to authorize")
	}

	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return &Authorizer{mode: modeTokenList, tokens: set}, nil
}

// Required reports whether this Authorizer ever rejects an unauthenticated
// request, i.e. whether auth_required should be advertised as true in the
// index config.
func (a *Authorizer) Required() bool {
	return a.mode != modeNone
}

// Authorize checks presented — the raw Authorization header value, with
// no scheme prefix — against the configured mode. An empty presented
// value always yields Unauthorized when a token is required, distinct
// from Forbidden (a token was given but didn't match).
func (a *Authorizer) Authorize(presented string) Result {
	switch a.mode {
	case modeNone:
		return Ok

	case modeToken:
		if presented == "" {
			return Unauthorized
		}
		sum := sha512.Sum512([]byte(presented))
		if subtle.ConstantTimeCompare(sum[:], a.tokenHash[:]) == 1 {
			return Ok
		}
		return Forbidden

	case modeTokenFile:
		if presented == "" {
			return Unauthorized
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) == 1 {
			return Ok
		}
		return Forbidden

	case modeTokenList:
		if presented == "" {
			return Unauthorized
		}
		for candidate := range a.tokens {
			if subtle.ConstantTimeCompare([]byte(presented), []byte(candidate)) == 1 {
				return Ok
			}
		}
		return Forbidden

	default:
		return Forbidden
	}
}
