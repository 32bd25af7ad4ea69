// Package gokeyset provides keyset (seek-based) pagination for GORM queries.
//
// Overview
//
// Instead of OFFSET, every page is selected with a condition on the ordering
// columns of the last row seen, so page depth does not affect performance
// and concurrent inserts or deletes do not shift pages. The query must have a
// deterministic ordering: its ordering columns must be unique per row, and
// should not contain NULLs (rows with NULL in an ordering column never match
// the paging condition).
//
// Key concepts
//   - Orderings: the ordered list of ordering columns with their directions,
//     given explicitly or read from the query's ORDER BY.
//   - Marker: the values of the ordering columns at a place in the result set
//     plus a paging direction. The sentinel marker (no values) is the first
//     page, or the last page when paging backwards.
//   - Bookmark: the string form of a marker, e.g. ">s:Joseph Heller~i:123".
//     Value types are resolved through a TypeRegistry; custom types are added
//     with RegisterType at startup.
//   - Predicate: the paging condition, the row-value comparison
//     (c1, ..., cn) > (v1, ..., vn) expanded into AND/OR of plain comparisons.
//   - KeysetPager: page size, ordering and marker for one request.
//   - Page and Paging: fetched rows plus markers and bookmarks of the
//     neighbouring pages.
package gokeyset
