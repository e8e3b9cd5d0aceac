// Package dircast snapshots directory trees into casts: flat, parent-indexed
// arrays of entries carrying two content digests per file and recursive
// totals per directory.
//
// # Building
//
// A cast is built in one walk of the tree followed by a parallel hash phase
// and a single aggregation pass:
//
//	c, err := dircast.Build(ctx, "/srv/photos", dircast.BuildOptions{})
//
// # Comparing
//
// Any directory or file of one cast can be compared with any entry of
// another (or the same) cast:
//
//	result, err := dircast.Compare(a, a.Root(), b, b.Root(), dircast.CompareOptions{})
//	fmt.Println(result.Verdict.Token()) // eq, ne, pd or fd
//
// # Duplicates
//
// FindDuplicates reports groups of identical subdirectories, largest first,
// with groups nested inside an already reported group left out:
//
//	groups := dircast.FindDuplicates(c, dircast.DuplicateOptions{IgnoreEmpty: true})
//
// # Storage
//
// Casts are stored as LZMA-compressed text, one line per entry:
//
//	err := dircast.SaveCast("photos.dcast", c, dircast.CompressionXZ)
//	c, err := dircast.LoadCast("photos.dcast")
//
// # Configuration
//
// Enable debug output:
//
//	dircast.SetDebugFlags("scan,compare")
//	dircast.SetVerboseLevel(2)
package dircast
