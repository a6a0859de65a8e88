// Package registry provides the glue between operator type names used in
// pipeline definitions (e.g. "MakeContiguous") and the compiled Go code
// that implements them.
//
// Modules register a factory per operator type at startup. The executor
// asks the registry to instantiate one operator per graph node during
// Build, after checking that the node's stage is one the operator supports.
package registry
