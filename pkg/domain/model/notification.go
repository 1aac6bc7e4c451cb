package model

// Notification is a short operator-facing message about a finished
// run, delivered by whatever notifier is configured.
type Notification struct {
	Title  string
	Text   string
	Fields []NotificationField
}

// NotificationField is one label/value pair rendered in the message.
type NotificationField struct {
	Label string
	Value string
}
