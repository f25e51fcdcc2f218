package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var eventTypes = []string{"purchase", "user_signup", "page_view", "custom"}

// syntheticPayload builds one wire-format event JSON payload: the same
// shape the worker's codec decodes off the stream.
func syntheticPayload(r *rand.Rand, now time.Time) []byte {
	eventType := eventTypes[r.Intn(len(eventTypes))]
	userID := fmt.Sprintf("user-%d", r.Intn(1000))

	properties := map[string]interface{}{}
	switch eventType {
	case "purchase":
		properties["amount"] = r.Float64() * 2000
		properties["product_id"] = fmt.Sprintf("product-%d", r.Intn(50))
	case "page_view":
		properties["path"] = fmt.Sprintf("/page/%d", r.Intn(20))
	}

	payload := map[string]interface{}{
		"event_id":   uuid.New().String(),
		"event_type": eventType,
		"user_id":    userID,
		"timestamp":  now.UTC().Format(time.RFC3339),
		"properties": properties,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("loadgen: failed to marshal synthetic event: %v", err))
	}
	return data
}
