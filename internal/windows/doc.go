// Package windows provides an HTTP client for the Windows API.
//
// # Overview
//
// The API stores photographs of windows together with facet values an image
// analyzer derived from them (daytime, location, type, material, panes,
// covering and open state). This package mirrors its JSON schema and wraps
// the endpoints sill uses:
//
//   - GET  /api/windows: paginated, filtered listing
//   - POST /api/windows: multipart upload of a single image (field "file")
//   - GET  /api/windows/{id}: one record
//   - GET  /api/windows/{id}/duplicates: records sharing the image hash
//   - GET  /health: liveness, {"status":"ok"}
//
// # Client Usage
//
//	client, err := windows.NewClient("http://127.0.0.1:8000")
//	if err != nil {
//		return err
//	}
//	page, err := client.ListWindows(ctx, windows.ListQuery{Page: 1, Limit: 12})
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation; reads time out after 10 seconds and
//     uploads after 90
//   - Set Accept: application/json and User-Agent: sill/0.1
//   - Run inside an OpenTelemetry client span and propagate its context
//   - Report endpoint, status and latency to an optional Observer
//
// # Error Handling
//
// Non-2xx responses return *APIError with the status and any server detail.
// Transport and decoding failures are wrapped with fmt.Errorf:
//
//   - "execute request: dial tcp: connection refused"
//   - "api GET /api/windows returned status 500"
//   - "decode response: unexpected EOF"
//
// Uploads are validated locally first. ErrNoFile and ErrNotImage are returned
// without any network traffic. The 5 MB size limit is enforced by the server
// and surfaces as an *APIError.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package windows
