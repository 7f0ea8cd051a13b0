// Package places queries a nearby-search service for points of interest
// around a location.
//
// The client speaks the Google Places "nearbysearch" JSON protocol, which
// several self-hosted gazetteers also implement. Responses are read with
// gjson rather than decoded into structs; only a handful of fields are used
// and the rest of the payload varies between providers.
//
// Status mapping:
//
//   - OK: places returned in service order, capped at MaxResults
//   - ZERO_RESULTS: empty slice, no error
//   - anything else, transport failures and non-2xx responses:
//     an error wrapping geo.ErrServiceUnavailable
//
// Outgoing requests are throttled with a token bucket so a burst of photo
// selections cannot exhaust the provider's quota.
package places
