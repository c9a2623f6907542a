// Package layout maps threads to directories and names the files written
// for them.
//
// Directory segments come from human titles. Segments of addressable
// entities (forums, categories, threads) carry their numeric id as a
// ".<id>" suffix, so two forums with the same title never share a
// directory. Every segment and file name is sanitized for common
// filesystems.
package layout
