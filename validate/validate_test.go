package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/progslice/pdg/offset"
	"github.com/progslice/pdg/pointer"
)

func buildValidProgram() *pointer.PointerGraph {
	g := pointer.NewPointerGraph()
	entry := g.CreateEntry("main")
	sg := g.CreateSubgraph(entry, 0)
	ret := g.CreateReturn()
	g.AddReturn(sg, ret)
	g.AddSuccessor(entry, ret)
	return g
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	g := buildValidProgram()

	report := Validate(g)

	assert.True(t, report.OK(), "%v", report.Errors)
}

func TestValidateReportsUnreachableNodeAsWarning(t *testing.T) {
	g := buildValidProgram()
	g.CreateNoop() // never wired into any subgraph's control flow

	report := Validate(g)

	assert.True(t, report.OK(), "an unreachable node is a warning, not an error")
	assert.NotEmpty(t, report.Warnings)
}

func TestValidateFlagsUnpairedCall(t *testing.T) {
	g := buildValidProgram()
	callee := g.CreateEntry("callee")
	calleeSg := g.CreateSubgraph(callee, 0)
	calleeRet := g.CreateReturn()
	g.AddReturn(calleeSg, calleeRet)
	g.AddSuccessor(callee, calleeRet)

	call := g.CreateCall()
	g.RegisterCall(call, calleeSg) // no SetPairedNode: Paired stays the sentinel

	report := Validate(g)

	assert.False(t, report.OK())
	assert.Contains(t, report.Errors[0].Error(), "no paired CallReturn")
}

func TestValidateAcceptsGepWithSingleOperand(t *testing.T) {
	g := buildValidProgram()
	alloc := g.CreateAlloc(offset.Offset(8))
	g.CreateGep(alloc, offset.Offset(0))

	report := Validate(g)

	assert.True(t, report.OK(), "%v", report.Errors)
}
