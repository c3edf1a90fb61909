// Package textutil normalizes free text into filesystem and URL friendly
// tokens.
//
// Slug folds diacritics before dropping unsafe runes so "Amélie" and "Amelie"
// share a media name. SanitizeToken produces host identifiers. TitleCase is
// used for host display names that were not configured explicitly.
package textutil
