// Package device requests live position fixes from a location sensor.
//
// Provider allows one request in flight. A new request cancels the sensor
// subscription of the previous unresolved one and replaces it; the replaced
// caller receives ErrSuperseded and any late callback for it is ignored.
// Every request resolves exactly once: with the first fix, a sensor error,
// or geo.ErrTimedOut when the timeout elapses first.
package device
