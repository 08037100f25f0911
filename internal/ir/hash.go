package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInteraction = "gridyield/interaction/v1"
	DomainCatalog     = "gridyield/catalog/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InteractionID computes the content-addressed id of an interaction record.
// The id is stable across retries given the same token, so re-inserting a
// record that already committed is a no-op at the store.
func InteractionID(token string, kind InteractionKind, moduleID, actor string, atUnixMicro int64, detail Object) (string, error) {
	if detail == nil {
		detail = Object{}
	}
	obj := Object{
		"token":  String(token),
		"kind":   String(kind),
		"module": String(moduleID),
		"actor":  String(actor),
		"at":     Int(atUnixMicro),
		"detail": detail,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InteractionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInteraction, canonical), nil
}

// CatalogDigest hashes the canonical form of a compiled catalog.
func CatalogDigest(catalog Object) (string, error) {
	canonical, err := MarshalCanonical(catalog)
	if err != nil {
		return "", fmt.Errorf("CatalogDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}
