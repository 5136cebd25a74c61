// Package mediatypes classifies filesystem entries as supported gallery
// images and maps them to canonical MIME types.
//
// The package is dependency-free so that the walker, the thumbnail
// generator, the full-image loader and the HTTP handlers can all share one
// extension table without import cycles.
//
// # Supported Formats
//
// jpg, jpeg, png, gif, bmp, webp, tif and tiff. Matching is done on the
// file extension and is case-insensitive:
//
//	if mediatypes.IsSupported(path) {
//	    mime, _ := mediatypes.ContentTypeFor(path) // e.g. "image/jpeg"
//	}
//
// ImageExtensions and MimeTypes are keyed by the same set; IsSupported is
// defined in terms of MimeTypes so the two cannot drift apart.
package mediatypes
