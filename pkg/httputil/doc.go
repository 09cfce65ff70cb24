// Package httputil provides HTTP utilities shared by source drivers that
// talk to remote registries.
//
// # Overview
//
//   - [Client]: a cache-aware HTTP client with registry-shaped status
//     mapping and retry
//   - [Retry]: automatic retry with exponential backoff
//
// # Client
//
// [Client] wraps an [*http.Client] with a [cache.Cache]/[cache.Keyer] pair so
// a driver's registry calls are transparently cached and retried:
//
//	client := httputil.NewClient(backend, keyer, "proxy.golang.org", cache.TTLModule, nil)
//	var info ModuleInfo
//	err := client.GetJSON(ctx, url, false, &info)
//
// # Retry
//
// [Retry] wraps an operation with automatic retry for transient failures.
// Only errors wrapped with [Retryable] trigger a retry; all others return
// immediately. It uses exponential backoff starting at 1 second:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
package httputil
