package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionIDDeterminism(t *testing.T) {
	detail := Object{"quantity": Int(2)}

	id1, err := InteractionID("tok-1", KindHarvest, "m1", "alice", 1000, detail)
	require.NoError(t, err)
	id2, err := InteractionID("tok-1", KindHarvest, "m1", "alice", 1000, detail)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "InteractionID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestInteractionIDChangesWithInput(t *testing.T) {
	base, err := InteractionID("tok-1", KindClick, "m1", "bob", 1, nil)
	require.NoError(t, err)

	cases := map[string]func() (string, error){
		"token":  func() (string, error) { return InteractionID("tok-2", KindClick, "m1", "bob", 1, nil) },
		"kind":   func() (string, error) { return InteractionID("tok-1", KindPrize, "m1", "bob", 1, nil) },
		"module": func() (string, error) { return InteractionID("tok-1", KindClick, "m2", "bob", 1, nil) },
		"actor":  func() (string, error) { return InteractionID("tok-1", KindClick, "m1", "eve", 1, nil) },
		"at":     func() (string, error) { return InteractionID("tok-1", KindClick, "m1", "bob", 2, nil) },
		"detail": func() (string, error) {
			return InteractionID("tok-1", KindClick, "m1", "bob", 1, Object{"x": Int(1)})
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := fn()
			require.NoError(t, err)
			assert.NotEqual(t, base, id)
		})
	}
}

func TestCatalogDigest_DomainSeparated(t *testing.T) {
	obj := Object{"a": Int(1)}
	digest, err := CatalogDigest(obj)
	require.NoError(t, err)

	canonical, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain(DomainInteraction, canonical), digest)
	assert.Equal(t, hashWithDomain(DomainCatalog, canonical), digest)
}
