// Package live is the boundary to the broadcast platform: querying a room's
// online status and resolving playback URLs for its stream.
//
// The daemon only depends on the Client and SourcePolicy interfaces; the
// bundled HTTPClient implements them against the Bilibili live API. URL
// selection among CDN candidates is deliberately pluggable since preference
// rules are infrastructure specific.
package live
