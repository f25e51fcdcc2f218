package validate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/validate"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func baseEvent(eventType event.Type) event.Event {
	return event.Event{
		EventID:    uuid.New(),
		EventType:  eventType,
		UserID:     "u1",
		Timestamp:  fixedNow.Add(-time.Hour),
		Properties: map[string]interface{}{},
	}
}

func TestValidate_PurchaseMissingAmountFails(t *testing.T) {
	e := baseEvent(event.TypePurchase)

	err := validate.Validate(e, fixedNow)

	require.Error(t, err)
	require.Contains(t, err.Error(), "amount")
}

func TestValidate_PurchaseAmountBoundary(t *testing.T) {
	cases := []struct {
		name    string
		amount  float64
		wantErr bool
	}{
		{"exactly_1000_is_valid", 1000, false},
		{"just_above_1000_is_valid", 1000.01, false},
		{"zero_is_invalid", 0, true},
		{"negative_is_invalid", -5, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := baseEvent(event.TypePurchase)
			e.Properties["amount"] = tc.amount

			err := validate.Validate(e, fixedNow)

			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate_UserSignupRequiresUserID(t *testing.T) {
	e := baseEvent(event.TypeUserSignup)
	e.UserID = ""

	err := validate.Validate(e, fixedNow)

	require.Error(t, err)
	require.Contains(t, err.Error(), "user_id")
}

func TestValidate_UserSignupWithUserIDPasses(t *testing.T) {
	e := baseEvent(event.TypeUserSignup)

	require.NoError(t, validate.Validate(e, fixedNow))
}

func TestValidate_FutureTimestampFails(t *testing.T) {
	e := baseEvent(event.TypeCustom)
	e.Timestamp = fixedNow.Add(time.Hour)

	err := validate.Validate(e, fixedNow)

	require.Error(t, err)
	require.Contains(t, err.Error(), "future")
}

func TestValidate_PageViewAndCustomNeedNoExtraRules(t *testing.T) {
	require.NoError(t, validate.Validate(baseEvent(event.TypePageView), fixedNow))
	require.NoError(t, validate.Validate(baseEvent(event.TypeCustom), fixedNow))
}
