/*
Package assets extracts the location a photo was taken at.

Two adapters implement the LocationSource capability:

  - CatalogSource reads the asset catalog the indexer maintains. A photo
    that was just captured or synced may not be cataloged yet, so a miss
    is worth retrying.
  - ExifReader parses GPS tags embedded in the image bytes directly.

Extractor runs the catalog under a retry policy with attempt-proportional
delays and falls back to the EXIF reader once the retry budget is spent.
Plain absence is reported as geo.ErrNotFound. geo.ErrPermissionDenied is
terminal and never retried.
*/
package assets
