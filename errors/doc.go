/*
Package errors provides semantic error types for the widerow library.

Every public operation either returns a typed result or one of the errors below.
Each type can be checked with the standard errors.Is() function against its
sentinel, or with the provided helper functions.

Common Errors:

	var (
	    ErrMalformedKey         = errors.New("malformed composite key")
	    ErrInvalidRange         = errors.New("invalid range")
	    ErrInvalidArgument      = errors.New("invalid argument")
	    ErrUnresolvedJoinEntity = errors.New("unresolved join entity")
	    ErrNotFound             = errors.New("entity not found")
	    ErrNoSuchElement        = errors.New("no such element")
	    ErrConsistencyViolation = errors.New("consistency level cannot be satisfied")
	)

Local validation errors (malformed keys, invalid ranges, invalid arguments) are
returned before any storage call is made. Storage errors, including
ConsistencyViolationError, are passed through to the caller unchanged.

Usage:

	tweets, err := timeline.Find(ctx, start, end, 10, widemap.InclusiveBounds, widemap.Descending)
	if err != nil {
	    if errors.IsInvalidRange(err) {
	        // start and end are swapped for the requested ordering
	    }
	    return err
	}
*/
package errors
