package ports

// Notifier shows short messages to the person wearing the strap.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}
