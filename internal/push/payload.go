// internal/push/payload.go
package push

import (
	"encoding/json"
	"fmt"
	"strings"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema is the push wire contract: notification fields optional,
// every data value a string. Producers that leak numbers or booleans into
// data violate the contract and get flagged here.
const payloadSchema = `{
	"type": "object",
	"properties": {
		"notification": {
			"type": "object",
			"properties": {
				"title": {"type": "string"},
				"body": {"type": "string"}
			}
		},
		"data": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		}
	}
}`

var compiledPayloadSchema = gojsonschema.NewStringLoader(payloadSchema)

// ValidatePayload checks raw against the push wire contract. A validation
// error is a producer bug to report, not a reason to drop the notification;
// callers still render via DecodePayload.
func ValidatePayload(raw []byte) error {
	result, err := gojsonschema.Validate(compiledPayloadSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.NewInvalidPayloadError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return errors.NewInvalidPayloadError(strings.Join(details, "; "))
}

// DecodePayload decodes raw best-effort. Non-string data values are coerced
// to their string form so rendering never fails on a sloppy producer.
func DecodePayload(raw []byte) (models.PushPayload, error) {
	var payload models.PushPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		return payload, nil
	}

	// Strict decode failed; coerce the data map value by value.
	var loose struct {
		Notification *models.PushNotification `json:"notification"`
		Data         map[string]interface{}   `json:"data"`
	}
	if err := json.Unmarshal(raw, &loose); err != nil {
		return models.PushPayload{}, fmt.Errorf("decode push payload: %w", err)
	}

	payload = models.PushPayload{Notification: loose.Notification}
	if loose.Data != nil {
		payload.Data = make(map[string]string, len(loose.Data))
		for k, v := range loose.Data {
			switch value := v.(type) {
			case string:
				payload.Data[k] = value
			default:
				payload.Data[k] = fmt.Sprintf("%v", value)
			}
		}
	}
	return payload, nil
}
