// Package github reads market repositories through the GitHub REST API.
//
// [Repository] implements [driven.RemoteRepository] for every repository of
// one organisation. The organisation and token are injected at construction;
// nothing is resolved lazily.
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to approximately
//     1.2 requests per second, staying under the 5,000/hour authenticated
//     limit.
//
//  2. Reactive handling: the client monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset headers. When the quota is nearly spent it waits
//     until the reset time before continuing.
//
// # Error Mapping
//
// Client errors are mapped onto the domain sentinels at the port boundary:
//
//   - 404 and 409 (empty repository): [domain.ErrNotFound]
//   - comparisons truncated at 300 files: [domain.ErrChangeSetTruncated]
//   - everything else, including rate limits: [domain.ErrRemoteUnavailable]
//
// Context cancellation is passed through unchanged.
package github
