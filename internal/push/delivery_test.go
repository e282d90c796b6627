// internal/push/delivery_test.go
package push

import (
	"context"
	stderrors "errors"
	"testing"

	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNotification(t *testing.T) {
	tests := []struct {
		name     string
		payload  models.PushPayload
		expected RenderedNotification
	}{
		{
			name:    "empty payload renders defaults",
			payload: models.PushPayload{},
			expected: RenderedNotification{
				Title: DefaultTitle,
				Body:  DefaultBody,
				Tag:   DefaultTag,
			},
		},
		{
			name: "explicit fields win",
			payload: models.PushPayload{
				Notification: &models.PushNotification{Title: "Order #42", Body: "2x Margherita"},
				Data: map[string]string{
					models.DataKeyTag:                "order-42",
					models.DataKeyRequireInteraction: "true",
				},
			},
			expected: RenderedNotification{
				Title:              "Order #42",
				Body:               "2x Margherita",
				Tag:                "order-42",
				RequireInteraction: true,
			},
		},
		{
			name: "blank strings fall back to defaults",
			payload: models.PushPayload{
				Notification: &models.PushNotification{Title: "", Body: ""},
				Data:         map[string]string{models.DataKeyTag: ""},
			},
			expected: RenderedNotification{
				Title: DefaultTitle,
				Body:  DefaultBody,
				Tag:   DefaultTag,
			},
		},
		{
			name: "unparseable requireInteraction stays false",
			payload: models.PushPayload{
				Data: map[string]string{models.DataKeyRequireInteraction: "yes please"},
			},
			expected: RenderedNotification{
				Title: DefaultTitle,
				Body:  DefaultBody,
				Tag:   DefaultTag,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderNotification(tt.payload))
		})
	}
}

func TestClickDestination(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]string
		expected string
	}{
		{
			name:     "order id wins over url",
			data:     map[string]string{models.DataKeyOrderID: "42", models.DataKeyURL: "/somewhere-else"},
			expected: "/order-status/42",
		},
		{
			name:     "url alone routes to url",
			data:     map[string]string{models.DataKeyURL: "/reports/today"},
			expected: "/reports/today",
		},
		{
			name:     "no routing data falls back to root",
			data:     map[string]string{},
			expected: "/",
		},
		{
			name:     "nil data falls back to root",
			data:     nil,
			expected: "/",
		},
		{
			name:     "blank order id is treated as absent",
			data:     map[string]string{models.DataKeyOrderID: "", models.DataKeyURL: "/fallback"},
			expected: "/fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClickDestination(tt.data))
		})
	}
}

type mockWindow struct {
	origin    string
	focusErr  error
	focused   int
	navigated []string
}

func (m *mockWindow) Origin() string { return m.origin }

func (m *mockWindow) Focus() error {
	m.focused++
	return m.focusErr
}

func (m *mockWindow) Navigate(path string) error {
	m.navigated = append(m.navigated, path)
	return nil
}

type mockWindowManager struct {
	origin  string
	windows []Window
	listErr error
	opened  []string
}

func (m *mockWindowManager) Origin() string { return m.origin }

func (m *mockWindowManager) OpenWindows(ctx context.Context) ([]Window, error) {
	return m.windows, m.listErr
}

func (m *mockWindowManager) OpenWindow(ctx context.Context, path string) error {
	m.opened = append(m.opened, path)
	return nil
}

func TestHandleClick_ReusesMatchingWindow(t *testing.T) {
	matching := &mockWindow{origin: "https://hub.example"}
	foreign := &mockWindow{origin: "https://other.example"}
	wm := &mockWindowManager{origin: "https://hub.example", windows: []Window{foreign, matching}}

	data := map[string]string{models.DataKeyOrderID: "42"}
	require.NoError(t, HandleClick(context.Background(), wm, data, logger.NewTestLogger(t)))

	assert.Equal(t, 1, matching.focused)
	assert.Equal(t, []string{"/order-status/42"}, matching.navigated)
	assert.Zero(t, foreign.focused)
	assert.Empty(t, wm.opened, "no new window while a matching one exists")
}

func TestHandleClick_OpensWindowWhenNoneMatches(t *testing.T) {
	foreign := &mockWindow{origin: "https://other.example"}
	wm := &mockWindowManager{origin: "https://hub.example", windows: []Window{foreign}}

	require.NoError(t, HandleClick(context.Background(), wm, nil, logger.NewTestLogger(t)))
	assert.Equal(t, []string{"/"}, wm.opened)
}

func TestHandleClick_EnumerationFailureOpensFreshWindow(t *testing.T) {
	wm := &mockWindowManager{origin: "https://hub.example", listErr: stderrors.New("shell gone")}

	data := map[string]string{models.DataKeyURL: "/reports"}
	require.NoError(t, HandleClick(context.Background(), wm, data, logger.NewTestLogger(t)))
	assert.Equal(t, []string{"/reports"}, wm.opened)
}

func TestHandleClick_FocusFailureFallsThrough(t *testing.T) {
	broken := &mockWindow{origin: "https://hub.example", focusErr: stderrors.New("window stuck")}
	healthy := &mockWindow{origin: "https://hub.example"}
	wm := &mockWindowManager{origin: "https://hub.example", windows: []Window{broken, healthy}}

	require.NoError(t, HandleClick(context.Background(), wm, nil, logger.NewTestLogger(t)))
	assert.Empty(t, broken.navigated)
	assert.Equal(t, []string{"/"}, healthy.navigated)
	assert.Empty(t, wm.opened)
}
