package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditEncodePayloadSmall(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	payload := []byte(`{"status":"DRAFT"}`)
	raw, compressed, algo := svc.encodePayload(payload)

	assert.Equal(t, payload, raw)
	assert.Nil(t, compressed)
	assert.Equal(t, CompressionNone, algo)
}

func TestAuditEncodePayloadLarge(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	payload := bytes.Repeat([]byte(`{"line":"x"},`), 2_000) // well over the threshold
	raw, compressed, algo := svc.encodePayload(payload)

	// Exactly one column gets a value; the raw column stays NULL.
	assert.Nil(t, raw)
	require.NotNil(t, compressed)
	assert.Less(t, len(compressed), len(payload))
	assert.Equal(t, CompressionZstd, algo)

	decoded, err := svc.decodePayload(raw, compressed, algo)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestAuditDecodePayloadUncompressed(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	payload := []byte(`{"status":"POSTED"}`)
	decoded, err := svc.decodePayload(payload, nil, CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}
