// internal/push/delivery.go
package push

import (
	"context"
	"strconv"

	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"
)

// Defaults applied when the payload omits optional presentation fields.
// Rendering must never fail because a field is absent.
const (
	DefaultTitle = "Kitchen Hub"
	DefaultBody  = "You have a new order notification."
	DefaultTag   = "kitchen-hub-order"

	orderStatusPath = "/order-status/"
)

// RenderedNotification is what the OS notification tray displays.
type RenderedNotification struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
}

// RenderNotification builds the tray notification for a push payload. The
// tag groups duplicate notifications sharing the same logical subject.
func RenderNotification(payload models.PushPayload) RenderedNotification {
	rendered := RenderedNotification{
		Title: DefaultTitle,
		Body:  DefaultBody,
		Tag:   DefaultTag,
	}

	if payload.Notification != nil {
		if payload.Notification.Title != "" {
			rendered.Title = payload.Notification.Title
		}
		if payload.Notification.Body != "" {
			rendered.Body = payload.Notification.Body
		}
	}

	if tag, ok := payload.Data[models.DataKeyTag]; ok && tag != "" {
		rendered.Tag = tag
	}
	if raw, ok := payload.Data[models.DataKeyRequireInteraction]; ok {
		// Data values are strings on the wire; booleans never survive
		// transport as booleans.
		if v, err := strconv.ParseBool(raw); err == nil {
			rendered.RequireInteraction = v
		}
	}

	return rendered
}

// ClickDestination resolves the in-app path a notification tap routes to.
// Precedence is fixed: order identifier, then explicit URL, then app root.
func ClickDestination(data map[string]string) string {
	if orderID, ok := data[models.DataKeyOrderID]; ok && orderID != "" {
		return orderStatusPath + orderID
	}
	if target, ok := data[models.DataKeyURL]; ok && target != "" {
		return target
	}
	return "/"
}

// Window is an already-open application window.
type Window interface {
	Origin() string
	Focus() error
	Navigate(path string) error
}

// WindowManager abstracts the shell's window handling for click routing.
type WindowManager interface {
	Origin() string
	OpenWindows(ctx context.Context) ([]Window, error)
	OpenWindow(ctx context.Context, path string) error
}

// HandleClick routes a notification tap. An already-open window matching the
// app origin is focused and navigated in place; a new window opens only when
// none matches, so repeat taps never proliferate windows.
func HandleClick(ctx context.Context, wm WindowManager, data map[string]string, log logger.Logger) error {
	destination := ClickDestination(data)

	windows, err := wm.OpenWindows(ctx)
	if err != nil {
		log.Warn("window enumeration failed, opening fresh window", map[string]interface{}{
			"error": err.Error(),
		})
		return wm.OpenWindow(ctx, destination)
	}

	for _, w := range windows {
		if w.Origin() != wm.Origin() {
			continue
		}
		if err := w.Focus(); err != nil {
			log.Warn("window focus failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		return w.Navigate(destination)
	}

	return wm.OpenWindow(ctx, destination)
}
