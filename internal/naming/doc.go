// Package naming maps input assets to output paths and resolves collisions
// between them.
//
// An output keeps its input's basename and lands in the filter's fixed
// subdirectory of the output root:
//
//	<outputDir>/<filter subdir>/<input basename>
//
// When two inputs in one run would claim the same output (same basename
// from different directories, or names differing only in case when the
// output directory is on a case-insensitive filesystem), the later one gets
// a " - dupN" suffix. On case-sensitive filesystems A.png and a.png are
// distinct outputs and both keep their names.
package naming
