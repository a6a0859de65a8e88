// internal/tensorref/doc.go

/*
Package tensorref provides the symbolic reference used to wire operators
together: a tensor name plus the device the data lives on.

The canonical text form is `<name>_<device>`, e.g. `data3_cont_host`. The
device suffix is always the part after the last underscore, so names may
themselves contain underscores.

This package centralizes all formatting and parsing logic so that the graph,
the configuration loader and the executor agree on how a requested output
name maps to a (name, device) key.
*/
package tensorref
