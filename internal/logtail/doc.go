// Package logtail reads the end of sill's log file for the Logs view.
//
// Read extracts the last N lines with a ring buffer, so memory stays
// O(N) no matter how large the file grows. Parse decodes each line as a
// log/slog JSON record into a Record (time, level, message and sorted
// attributes); anything else is kept verbatim in Record.Raw so crash output
// and partial writes still show up.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//	if err != nil {
//		return err
//	}
//	for _, rec := range logtail.ParseLines(lines) {
//		fmt.Println(rec.Level, rec.Message)
//	}
package logtail
