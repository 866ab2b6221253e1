// Package notify sends operator notifications. Delivery is best-effort
// throughout the system: callers log a failed Send and move on, it never
// affects archival state.
package notify

// Kind classifies a notification
type Kind int

const (
	// KindGeoArchived informs the land registry that a geotechnical
	// document was archived.
	KindGeoArchived Kind = iota
	// KindManualHandling asks an operator to handle a document the
	// archive rejected for its file extension or format.
	KindManualHandling
)

// Notification represents a notification to be sent
type Notification struct {
	Kind      Kind
	Recipient string
	Subject   string
	HTMLBody  string
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }
