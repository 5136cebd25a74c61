// Package media implements the filesystem and image side of the gallery:
//
//   - Walk: iterative, failure-tolerant discovery of supported images under
//     a root directory, returned sorted by path
//   - Generator: decode, bounded resize and PNG re-encode of one image;
//     stateless and safe for concurrent use
//   - LoadFullImage: read an original image and return it as a data URL
//
// Decoding goes through disintegration/imaging (with EXIF auto-orientation)
// and the standard library / golang.org/x/image decoders. When libvips has
// been initialized with InitVips, large sources are shrunk at decode time by
// libvips instead.
package media
