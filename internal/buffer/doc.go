// Package buffer provides TensorList, the device-tagged batch container the
// executor binds into workspaces.
//
// A TensorList holds one born tensor.RawTensor per sample of a batch. The
// list itself is resized per run; samples are assigned by the producing
// operator and read by any number of consumers of the same slot. Consumers
// must treat samples as read-only.
//
// Samples are shared by reference (RawTensor.Clone bumps a refcount on the
// underlying buffer). CopyFrom makes a deep, private copy.
package buffer
