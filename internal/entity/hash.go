package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
const (
	DomainRecord = "prodsys/record/v1"
	DomainAction = "prodsys/action/v1"
	DomainStore  = "prodsys/store/v1"
)

// HashWithDomain computes SHA-256 over domain, a 0x00 separator and data.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a value's canonical form.
func Hash(domain string, v Value) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}

// RecordHash returns the content hash of a record.
func RecordHash(r Record) (string, error) {
	return Hash(DomainRecord, Object(r))
}
