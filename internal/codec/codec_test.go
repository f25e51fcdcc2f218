package codec_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTripsKnownFields(t *testing.T) {
	eventID := uuid.New()
	payload := []byte(`{"event_id":"` + eventID.String() + `","event_type":"purchase","user_id":"u1",` +
		`"timestamp":"2024-01-01T00:00:00Z","properties":{"amount":42.5,"product_id":"p1"},"extra_field":"ignored"}`)

	e, err := codec.Decode(payload)

	require.NoError(t, err)
	require.Equal(t, eventID, e.EventID)
	require.Equal(t, "purchase", string(e.EventType))
	require.Equal(t, "u1", e.UserID)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), e.Timestamp)
	require.Equal(t, 42.5, e.Properties["amount"])
	require.Equal(t, "p1", e.Properties["product_id"])
}

func TestDecode_NaiveTimestampTreatedAsUTC(t *testing.T) {
	eventID := uuid.New()
	payload := []byte(`{"event_id":"` + eventID.String() + `","event_type":"purchase",` +
		`"timestamp":"2024-01-01T00:00:00","properties":{"amount":42.5}}`)

	e, err := codec.Decode(payload)

	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), e.Timestamp)
}

func TestDecode_NaiveTimestampWithFractionalSeconds(t *testing.T) {
	payload := []byte(`{"event_id":"` + uuid.New().String() + `","event_type":"custom",` +
		`"timestamp":"2024-01-01T00:00:00.123456","properties":{}}`)

	e, err := codec.Decode(payload)

	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 123456000, time.UTC), e.Timestamp)
}

func TestDecode_UnknownTopLevelFieldsIgnored(t *testing.T) {
	payload := []byte(`{"event_id":"` + uuid.New().String() + `","event_type":"custom",` +
		`"timestamp":"2024-01-01T00:00:00Z","properties":{},"trace":"abc"}`)

	_, err := codec.Decode(payload)

	require.NoError(t, err)
}

func TestDecode_MissingEventIDFails(t *testing.T) {
	payload := []byte(`{"event_type":"custom","timestamp":"2024-01-01T00:00:00Z","properties":{}}`)

	_, err := codec.Decode(payload)

	require.Error(t, err)
}

func TestDecode_UnknownEventTypeFails(t *testing.T) {
	payload := []byte(`{"event_id":"` + uuid.New().String() + `","event_type":"not_a_real_type",` +
		`"timestamp":"2024-01-01T00:00:00Z","properties":{}}`)

	_, err := codec.Decode(payload)

	require.Error(t, err)
}

func TestDecode_UnparseableTimestampFails(t *testing.T) {
	payload := []byte(`{"event_id":"` + uuid.New().String() + `","event_type":"custom",` +
		`"timestamp":"not-a-date","properties":{}}`)

	_, err := codec.Decode(payload)

	require.Error(t, err)
}

func TestDecode_PropertiesMustBeAnObject(t *testing.T) {
	payload := []byte(`{"event_id":"` + uuid.New().String() + `","event_type":"custom",` +
		`"timestamp":"2024-01-01T00:00:00Z","properties":["not","an","object"]}`)

	_, err := codec.Decode(payload)

	require.Error(t, err)
}

func TestDecode_NilPropertiesBecomesEmptyObject(t *testing.T) {
	payload := []byte(`{"event_id":"` + uuid.New().String() + `","event_type":"custom",` +
		`"timestamp":"2024-01-01T00:00:00Z"}`)

	e, err := codec.Decode(payload)

	require.NoError(t, err)
	require.NotNil(t, e.Properties)
	require.Empty(t, e.Properties)
}

func TestDecode_MalformedJSONFails(t *testing.T) {
	_, err := codec.Decode([]byte(`not json at all`))

	require.Error(t, err)
}

func TestDecodeRaw_FallsBackToRawStringOnMalformedJSON(t *testing.T) {
	raw := codec.DecodeRaw([]byte(`not json`))

	require.Equal(t, "not json", raw["raw"])
}

func TestDecodeRaw_PreservesDecodableFields(t *testing.T) {
	raw := codec.DecodeRaw([]byte(`{"event_id":"abc","event_type":"purchase"}`))

	require.Equal(t, "abc", raw["event_id"])
	require.Equal(t, "purchase", raw["event_type"])
}
