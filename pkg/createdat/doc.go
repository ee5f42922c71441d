// Package createdat attributes a single capture timestamp to a media file.
//
// Evidence comes from an ordered set of extractors (final file name, EXIF,
// camera file name and, optionally, the filesystem modification time). The
// first extractor that finds anything wins; its candidates are filtered by a
// DateRange and reduced to one value by iterative outlier rejection.
package createdat
