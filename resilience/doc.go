// Package resilience provides the failure-handling primitives used by the
// vendora client core.
//
//   - FetchWithRetry: sequential retries with capped exponential backoff.
//   - Race: first-settled-wins between an operation and a timer. The loser
//     keeps running and its result goes to an explicit discard hook.
//   - WithTimeout: a hard time-box that cancels the operation.
//   - CircuitBreaker: stops calling a failing backend until it recovers.
//
// Usage:
//
//	products, err := resilience.FetchWithRetry(ctx, resilience.DefaultRetryPolicy(),
//	    func(ctx context.Context) ([]catalog.Product, error) {
//	        return client.From("products").Select("*").Find(ctx)
//	    })
//
//	out := resilience.Race(ctx, time.Second, restore, func(late resilience.Outcome[*User]) {
//	    log.Debug(ctx, "discarding late restore")
//	})
package resilience
