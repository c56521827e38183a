// Package notifications delivers library events via ntfy.
//
// NewService returns an ntfy-backed Service when a topic is configured and a
// no-op otherwise. FolderNotifier adapts a Service to watch.Notifier so folder
// creation can be pushed alongside the other change notifiers.
package notifications
