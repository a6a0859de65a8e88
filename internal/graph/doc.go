// Package graph holds the operator DAG: nodes tagged with an execution
// stage, wired together by name-resolved tensor references.
//
// # Construction
//
// A Graph is built incrementally with AddOperator. Every input a new node
// declares must already be produced by a node added earlier, so node ids
// are always a valid topological order and cycles cannot be expressed:
//
//	g := graph.New()
//	_ = g.AddOperator(opspec.New("ExternalSource", opspec.Host).
//		AddOutput("data", tensorref.Host), "source")
//	_ = g.AddOperator(opspec.New("MakeContiguous", opspec.Staging).
//		AddInput("data", tensorref.Host).
//		AddOutput("data", tensorref.Accelerator), "upload")
//
// # Resolution table
//
// Tensors are keyed by (name, device). The table maps each key to the
// TensorSource that produces it: the node id and the output index.
//
// # Pruning
//
// Prune keeps only the nodes on a dependency path to the requested outputs,
// re-indexing the survivors densely while preserving their relative order.
// Pruning twice with the same outputs is a no-op.
//
// # Errors
//
// Every construction, resolution and pruning failure is a *GraphError
// carrying an ErrorKind. errors.Is(err, ErrGraph) matches any of them and
// the kind sentinels (ErrUnknownOutput, ...) match a specific kind.
//
// A Graph is not safe for concurrent mutation. Once handed to an executor
// it is treated as read-only.
package graph
