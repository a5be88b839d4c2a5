package utils // package utils provides helper functions for the partition cookie and platform tokens

import (
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // random partition identifiers
    "github.com/pkg/errors"
)

// ErrInvalidPartition is returned when a partition cookie does not verify.
var ErrInvalidPartition = errors.New("invalid partition token")

// PartitionToken is the signed cookie value that names a browser's storage
// partition.  Token is the serialized JWT; Exp is when the browser must get
// a new partition (and therefore sign in again).
type PartitionToken struct {
    ID    string    // partition id (the JWT subject)
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewPartitionToken creates a fresh partition id and signs it with HS256.
// The JWT carries only the partition id; everything else about the session
// lives in the partition itself.
func NewPartitionToken(secret string, ttl time.Duration) (PartitionToken, error) {
    return SignPartition(secret, uuid.NewString(), ttl)
}

// SignPartition signs an existing partition id, e.g. to extend its expiry.
func SignPartition(secret, id string, ttl time.Duration) (PartitionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        Subject:   id,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return PartitionToken{}, errors.Wrap(err, "sign partition")
    }
    return PartitionToken{ID: id, Token: signed, Exp: exp}, nil
}

// ParsePartitionToken verifies raw and returns the partition id.  Tokens
// signed with another algorithm, expired tokens and tokens without a
// subject are rejected with ErrInvalidPartition.
func ParsePartitionToken(secret, raw string) (string, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // Type assert the signing method to HMAC; reject others.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidPartition
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid || claims.Subject == "" {
        return "", ErrInvalidPartition
    }
    if _, err := uuid.Parse(claims.Subject); err != nil {
        return "", ErrInvalidPartition
    }
    return claims.Subject, nil
}

// PlatformSubject reads the subject of a token issued by the external
// platform without verifying it.  The gateway does not hold the platform's
// key; the value is only used for logging, the token itself is verified by
// the find-session collaborator.
func PlatformSubject(raw string) string {
    claims := jwt.MapClaims{}
    if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
        return ""
    }
    for _, k := range []string{"preferred_username", "sub", "username"} {
        if v, ok := claims[k].(string); ok && v != "" {
            return v
        }
    }
    return ""
}
