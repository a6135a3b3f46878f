// Package cursor encodes and decodes the opaque pagination tokens handed out
// by product search.
//
// A token carries the last emitted product id together with the ranking key
// of the active sort mode and a fingerprint of the request it belongs to. The
// payload is signed so clients cannot forge continuation points.
package cursor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	version        = 1
	maxTokenLength = 1024
	fingerprintLen = 16
)

var (
	// ErrMalformed is returned when a token cannot be decoded or its
	// signature does not verify.
	ErrMalformed = errors.New("cursor: malformed token")
	// ErrMismatch is returned when a valid token is replayed against a
	// different query, filter set or sort mode.
	ErrMismatch = errors.New("cursor: token belongs to a different query")
)

// Kind tags which ranking value a Key holds.
type Kind string

const (
	KindScore   Kind = "score"
	KindPrice   Kind = "price"
	KindCreated Kind = "created"
)

// Key is the last-seen ranking value. Exactly one of the value fields is
// meaningful, selected by Kind.
type Key struct {
	Kind    Kind
	Score   float32
	Price   int64
	Created time.Time
}

// ScoreKey builds a relevance key.
func ScoreKey(score float32) Key { return Key{Kind: KindScore, Score: score} }

// PriceKey builds a price key in minor units.
func PriceKey(price int64) Key { return Key{Kind: KindPrice, Price: price} }

// CreatedKey builds a creation time key truncated to microseconds, the
// precision Postgres stores.
func CreatedKey(t time.Time) Key {
	return Key{Kind: KindCreated, Created: time.UnixMicro(t.UnixMicro()).UTC()}
}

// Cursor is the decoded form of a token.
type Cursor struct {
	ID          uuid.UUID
	Key         Key
	Fingerprint string
}

type keyPayload struct {
	Kind    Kind     `json:"kind"`
	Score   *float32 `json:"score,omitempty"`
	Price   *int64   `json:"price,omitempty"`
	Created *int64   `json:"created,omitempty"`
}

type payload struct {
	V  int        `json:"v"`
	ID string     `json:"id"`
	K  keyPayload `json:"k"`
	FP string     `json:"fp"`
}

// Codec signs and verifies tokens with a shared secret.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec using secret as the HMAC key.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode serializes c into a URL-safe token.
func (codec *Codec) Encode(c Cursor) (string, error) {
	kp := keyPayload{Kind: c.Key.Kind}
	switch c.Key.Kind {
	case KindScore:
		score := c.Key.Score
		kp.Score = &score
	case KindPrice:
		price := c.Key.Price
		kp.Price = &price
	case KindCreated:
		created := c.Key.Created.UnixMicro()
		kp.Created = &created
	default:
		return "", fmt.Errorf("cursor: unknown key kind %q", c.Key.Kind)
	}

	raw, err := json.Marshal(payload{V: version, ID: c.ID.String(), K: kp, FP: c.Fingerprint})
	if err != nil {
		return "", fmt.Errorf("cursor: marshal: %w", err)
	}

	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + codec.sign(body), nil
}

// Decode parses and verifies token. Every failure wraps ErrMalformed.
func (codec *Codec) Decode(token string) (Cursor, error) {
	if token == "" || len(token) > maxTokenLength {
		return Cursor{}, ErrMalformed
	}

	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return Cursor{}, ErrMalformed
	}
	if !hmac.Equal([]byte(sig), []byte(codec.sign(body))) {
		return Cursor{}, fmt.Errorf("%w: signature", ErrMalformed)
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: encoding", ErrMalformed)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Cursor{}, fmt.Errorf("%w: payload", ErrMalformed)
	}
	if p.V != version {
		return Cursor{}, fmt.Errorf("%w: version %d", ErrMalformed, p.V)
	}

	id, err := uuid.Parse(p.ID)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: id", ErrMalformed)
	}

	key, err := p.K.key()
	if err != nil {
		return Cursor{}, err
	}

	return Cursor{ID: id, Key: key, Fingerprint: p.FP}, nil
}

func (kp keyPayload) key() (Key, error) {
	switch kp.Kind {
	case KindScore:
		if kp.Score != nil {
			return ScoreKey(*kp.Score), nil
		}
	case KindPrice:
		if kp.Price != nil {
			return PriceKey(*kp.Price), nil
		}
	case KindCreated:
		if kp.Created != nil {
			return Key{Kind: KindCreated, Created: time.UnixMicro(*kp.Created).UTC()}, nil
		}
	}
	return Key{}, fmt.Errorf("%w: key", ErrMalformed)
}

func (codec *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, codec.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Fingerprint hashes the normalized request parts a cursor is bound to.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:fingerprintLen])
}
