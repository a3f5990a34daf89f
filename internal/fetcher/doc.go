// Package fetcher retrieves product records from a catalog API.
//
// A Fetcher issues a single GET per call. Transport failures and malformed
// bodies are logged and reported as status 0 with no records so that the
// caller can record them as an API response defect and keep going.
//
// The HTTP client can route through a SOCKS5 proxy (for example a local Tor
// daemon or an ssh -D tunnel) built with golang.org/x/net/proxy.
package fetcher
