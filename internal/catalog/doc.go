// Package catalog holds the pure rules that turn repository content into
// catalog data: which product a changed path belongs to, how a metadata
// document maps onto product fields, how a README splits into sections and
// how a tag name yields a compatibility floor.
//
// Nothing in this package performs I/O. Callers fetch content through the
// driven ports and pass the bytes in.
package catalog
