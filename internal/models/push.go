// internal/models/push.go
package models

// Platform identifies the delivery channel a push token belongs to.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWeb, PlatformIOS, PlatformAndroid:
		return true
	}
	return false
}

// PushToken is an opaque delivery-channel token tagged with its platform.
// IsAdmin distinguishes operator registrations from customer ones; the
// backend keeps them in separate registries.
type PushToken struct {
	Value    string   `json:"token"`
	Platform Platform `json:"platform"`
	IsAdmin  bool     `json:"is_admin"`
}

// Empty reports whether no token value is present.
func (t PushToken) Empty() bool {
	return t.Value == ""
}

// PushNotification is the optional display half of a push payload.
type PushNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// PushPayload is the wire contract for inbound pushes. All Data values are
// strings; numeric or boolean types do not survive transport.
type PushPayload struct {
	Notification *PushNotification `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

// Well-known push data keys.
const (
	DataKeyTag                = "tag"
	DataKeyOrderID            = "orderId"
	DataKeyURL                = "url"
	DataKeyRequireInteraction = "requireInteraction"
)
