// Package freeze materializes a query's graph pattern into a ground graph.
//
// Every distinct pattern variable is replaced by a fresh Skolem constant.
// The constant's wire text carries its position tag at a fixed byte offset:
//
//	_:o3.UQ1a    output variable UQ1a, generation 3
//	_:i3.UQ1b    internal variable UQ1b, generation 3
//
// The tag is decoded exactly once, when a binding enters the checker (see
// Decode), and travels as Value.Tag afterwards.
package freeze
