// Package tile packs aspect-ratio-bearing items into justified rows.
//
// # Overview
//
// A justified grid fills every row edge to edge: all items in a row share one
// height, and each item's width is its aspect ratio times that height. The
// packer decides row membership; [Layout] turns a row into pixel geometry for
// a given container width.
//
// # Row Closing
//
// [Pack] scans items in order, accumulating aspect ratios. A row closes as
// soon as the running sum reaches the row aspect-ratio threshold. Higher
// thresholds put more items in a row and make rows shorter.
//
// When the input runs out before the last row closes:
//
//   - with more pages pending, the open tail is returned as the remainder so
//     a later page can complete it without moving rows already on screen;
//   - at the end of data, the tail is emitted as a final under-filled row.
//
// # Geometry
//
// For a justified row of n items with margin m inside width W:
//
//	height  = (W - (n-1)*m) / Σ aspectRatio
//	width_i = aspectRatio_i * height
//
// so Σ width_i + (n-1)*m == W. An under-filled row uses the height it would
// have if its aspect sum equalled the threshold, which keeps it no taller
// than a full row.
//
// Packing is deterministic: the same items and threshold always produce the
// same rows, which makes re-tiling after an option change idempotent.
package tile
