// Package notifications turns monitor transitions into user-facing alerts.
//
// A Sink drains the event bus, formats each event into a title and message,
// and hands it to a Notifier. Notifiers deliver through the desktop
// notification service, an ntfy topic over HTTP, or both. Delivery failures are logged and
// never stop the sink.
package notifications
