// Command galleryctl scans image folders and manages the thumbnail cache
// from the command line.
//
// Usage:
//
//	galleryctl scan [folder]       scan and cache thumbnails (--embed, --json)
//	galleryctl thumb <image>       print or write (-o) one thumbnail
//	galleryctl image <image>       print or write (-o) one full image
//	galleryctl stats               cache entry count and size
//	galleryctl watch [folder]      rescan whenever the folder changes
//	galleryctl version             build information
//
// The folder defaults to GALLERY_INITIAL_FOLDER. The first Ctrl+C during a
// scan cancels it and prints the images found so far.
package main
