// Package display holds the two declutter services the map uses to keep
// overlapping geometry readable: perpendicular lateral offsetting of parallel
// line geometries and radial offsetting of overlapping point markers.
//
// Both are pure geometry transforms; nothing here touches the rendering
// stack.
package display
