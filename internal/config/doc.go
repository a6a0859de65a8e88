// Package config defines the format-agnostic pipeline model and the Loader
// interface that format-specific adapters (such as HCL) implement.
//
// A Model is the single source of truth for building an operator graph: it
// lists operator declarations in the order they must be added and the
// tensors the pipeline produces.
package config
