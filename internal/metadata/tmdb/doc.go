// Package tmdb is a minimal client for The Movie Database search API and a
// metadata.Provider built on it.
package tmdb
