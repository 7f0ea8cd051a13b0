// Package pipeline composes the location resolution and suggestion prefetch
// stages into one object the application owns.
//
// A Context is built once by the command layer and passed to whoever needs
// it; there are no package-level singletons. Its flow for one photo:
//
//	SelectPhoto
//	  BeginSession   new Active session, previous one superseded, stale cache evicted
//	  Resolve        override, then asset metadata, then device fix
//	  commit         location stored only if the session is still Active
//	  Prefetch       background place search for the session
//	  Render         optional preview written to the temp dir
//
//	Suggestions      short wait on the cache, then a live search
//
// Every commit point checks the session token first. Work belonging to a
// superseded session is allowed to finish; its results are dropped.
package pipeline
