// Package watch connects the organizer to filesystem watchers.
//
// Before the organizer touches a folder it announces the paths through a
// Notifier, and after it creates folders it emits one FolderCreatedEvent. The
// Suppressor remembers announced paths for a short window so the fsnotify
// based Watcher can drop events shelver caused itself and only surface
// changes made by someone else. Fanout and Recorder compose and capture
// notifications.
package watch
