package notifier

// Notifier delivers human-readable alerts for emitted signals.
type Notifier interface {
	SendText(text string) error
}

// Nop swallows notifications; used when no channel is configured.
type Nop struct{}

func (Nop) SendText(string) error { return nil }
