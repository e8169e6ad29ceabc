package repository

import (
	"encoding/base64"
	"encoding/json"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/kv"
)

// ErrInvalidCursor is returned when a pagination token cannot be decoded.
var ErrInvalidCursor = apperr.Invalid(apperr.Violation{
	Message: "Invalid pagination token",
	Path:    []string{"nextToken"},
})

// encodeCursor turns a resume position into an opaque token.
func encodeCursor(key kv.Key) string {
	data, _ := json.Marshal(key)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor reverses encodeCursor. The key must belong to partition pk.
func decodeCursor(token, pk string) (kv.Key, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return kv.Key{}, ErrInvalidCursor
	}

	var key kv.Key
	if err := json.Unmarshal(data, &key); err != nil {
		return kv.Key{}, ErrInvalidCursor
	}
	if key.PK != pk || key.SK == "" {
		return kv.Key{}, ErrInvalidCursor
	}

	return key, nil
}
