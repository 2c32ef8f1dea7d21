// Package logtail reads the end of tower's own log file for the dashboard.
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded by the
// window rather than the file size:
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//	if err != nil {
//		slog.Warn("read log", "error", err)
//	}
//
// Level recognizes the level=... field written by slog's text handler so the
// UI can color warning and error lines.
package logtail
