// Package render fills post-body templates from a typed Context.
//
// Templates use {name} placeholders, with {{ and }} for literal braces. Each
// release kind has its own template, falling back to "default". A template
// that names a placeholder Context does not provide, or that has an unclosed
// brace, does not fail the publish: the body degrades to a fixed layout of
// title, overview, thumbnail, primary links and mirror links.
package render
