package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Operators []*operatorBlock `hcl:"operator,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// pipelineBlock is the `pipeline { ... }` block.
type pipelineBlock struct {
	Outputs []string `hcl:"outputs"`
}

// operatorBlock is an `operator "<Type>" "<name>" { ... }` block.
type operatorBlock struct {
	Type    string         `hcl:"type,label"`
	Name    string         `hcl:"name,label"`
	Stage   string         `hcl:"stage"`
	Inputs  []*tensorBlock `hcl:"input,block"`
	Outputs []*tensorBlock `hcl:"output,block"`
	Args    *argsBlock     `hcl:"args,block"`
}

// tensorBlock is an `input` or `output` block inside an operator.
type tensorBlock struct {
	Name   string `hcl:"name,label"`
	Device string `hcl:"device"`
}

// argsBlock captures the free-form operator arguments.
type argsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
