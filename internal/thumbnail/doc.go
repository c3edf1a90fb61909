// Package thumbnail finds or uploads the images attached to a post.
//
// Two images are tracked per release. The poster becomes the featured image:
// an existing "<slug>_poster" attachment is reused, otherwise the catalog
// image is downloaded and uploaded. The body thumbnail is a local
// "<release>_thumb_1" still taken from the configured thumbnail folder or the
// folder of the release file, with a looser "<Title.SxxEyy>.*" match as a
// fallback. Poster problems only produce warnings; a thumbnail that was found
// on disk but could not be uploaded is an error.
package thumbnail
