// Package google provides shared infrastructure for the Google Drive source.
//
// It contains:
//   - token loading from an externally obtained OAuth token file
//   - the Drive service factory
//   - classification of Google API errors (401, 403, 404, 429, 5xx)
//   - rate limiting to respect Google API quotas
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, credentialsFile, tokenFile)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// The token must carry https://www.googleapis.com/auth/drive.readonly.
// Obtaining it is out of scope; the consent flow happens elsewhere.
package google
