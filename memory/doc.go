// Package memory provides WorkingMemory, the named store of content values shared by the steps
// of a single pipeline run.
//
// Lookups distinguish a missing name (NotFoundError) from a value of the wrong shape
// (TypeMismatchError) so callers can branch on the failure kind.
package memory
