// Package task runs background work on a bounded pool of goroutines.
// It is used to render print preview pages in parallel and to run
// housekeeping jobs, such as export cache invalidation, triggered by
// domain events without blocking HTTP request handling.
package task
