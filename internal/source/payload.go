package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"compras/internal/core"
)

// ParsePayload decodes an uploaded JSON payload with the same shape as the
// remote endpoint. Failure modes mirror Fetch: a payload that is not an
// array of records is MALFORMED_INPUT, a valid but empty array is
// EMPTY_RESULT.
func ParsePayload(data []byte) ([]core.RawRecord, error) {
	records, err := decodeRecords(bytes.NewReader(data))
	if err != nil {
		return nil, &SourceError{Code: ErrCodeMalformedInput, Message: "payload is not a record array", Cause: err}
	}
	if len(records) == 0 {
		return nil, &SourceError{Code: ErrCodeEmptyResult, Message: "payload contains no records"}
	}
	return records, nil
}

// PayloadKey derives a cache key from the payload contents, so repeated
// uploads of the same file hit the cache.
func PayloadKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "file:" + hex.EncodeToString(sum[:8])
}
