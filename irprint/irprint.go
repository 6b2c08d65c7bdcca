// Package irprint implements the deterministic textual IR serializer
// (§4.G, §6.5): the same Module always renders to byte-identical text
// (§8 property 11), suitable for golden tests and human reading.
package irprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wudi/phiri/ir"
)

// Print renders m per the §4.G contract.
func Print(m *ir.Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; Module: %s\n", m.Name)
	fmt.Fprintf(&b, "; Source: %s\n", m.SourceFile)

	if len(m.TypeDefs) > 0 {
		b.WriteString("\n")
		for _, td := range m.TypeDefs {
			fmt.Fprintf(&b, "type %s = %s\n", td.Name, td.Underlying.String())
		}
	}

	if len(m.Globals) > 0 {
		b.WriteString("\n")
		for _, g := range m.Globals {
			fmt.Fprintf(&b, "global %s @%s\n", g.Type.String(), g.Name)
		}
	}

	for _, fn := range m.Functions {
		b.WriteString("\n")
		printFunction(&b, m, fn)
	}

	return b.String()
}

func printFunction(b *strings.Builder, m *ir.Module, fn *ir.Function) {
	exported := ""
	if fn.IsExported {
		exported = "export "
	}
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %%%d", p.Type.String(), i)
	}
	fmt.Fprintf(b, "define %s%s @%s(%s) {\n", exported, fn.ReturnType.String(), fn.Name, strings.Join(params, ", "))

	for _, block := range fn.Blocks {
		fmt.Fprintf(b, "%s:\n", block.Label)
		for _, instr := range block.Instructions {
			b.WriteString("  ")
			printInstruction(b, m, fn, instr)
			b.WriteString("\n")
		}
		if block.Terminator != nil {
			b.WriteString("  ")
			printTerminator(b, fn, block.Terminator)
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
}

func reg(r ir.Register) string { return fmt.Sprintf("%%%d", r.ID) }

func regList(rs []ir.Register) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = reg(r)
	}
	return strings.Join(parts, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quoteString(s string) string {
	return strconv.Quote(s)
}

func printInstruction(b *strings.Builder, m *ir.Module, fn *ir.Function, instr *ir.Instruction) {
	mnemonic := instr.Op.Mnemonic()
	prefix := ""
	if instr.Result != nil {
		prefix = reg(*instr.Result) + " = "
	}

	switch instr.Op {
	case ir.OpConstInt:
		fmt.Fprintf(b, "%s%s %d", prefix, mnemonic, instr.IntImm)
	case ir.OpConstFloat:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, formatFloat(instr.FloatImm))
	case ir.OpConstBool:
		fmt.Fprintf(b, "%s%s %t", prefix, mnemonic, instr.BoolImm)
	case ir.OpConstString:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, quoteString(m.Strings.Get(instr.StringID)))
	case ir.OpConstNull:
		fmt.Fprintf(b, "%s%s", prefix, mnemonic)

	case ir.OpAlloca:
		fmt.Fprintf(b, "%s%s %s count=%d", prefix, mnemonic, instr.ToType.String(), instr.IntImm)
	case ir.OpLoad:
		fmt.Fprintf(b, "%s%s %s -> %s", prefix, mnemonic, reg(instr.Args[0]), instr.ToType.String())
	case ir.OpStore:
		fmt.Fprintf(b, "%s%s %s, %s", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]))

	case ir.OpCall:
		fmt.Fprintf(b, "%s%s %s(%s)", prefix, mnemonic, instr.Name, regList(instr.CallArgs))
	case ir.OpCallIndirect:
		fmt.Fprintf(b, "%s%s %s(%s)", prefix, mnemonic, reg(instr.Args[0]), regList(instr.CallArgs))

	case ir.OpCast:
		fmt.Fprintf(b, "%s%s %s, %s -> %s", prefix, mnemonic, reg(instr.Args[0]), instr.FromType.String(), instr.ToType.String())
	case ir.OpTypeCheck:
		fmt.Fprintf(b, "%s%s %s, %s", prefix, mnemonic, reg(instr.Args[0]), instr.ToType.String())
	case ir.OpGetType:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, reg(instr.Args[0]))

	case ir.OpArrayNew:
		fmt.Fprintf(b, "%s%s capacity=%d", prefix, mnemonic, instr.IntImm)
	case ir.OpArrayGet:
		fmt.Fprintf(b, "%s%s %s[%s]", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]))
	case ir.OpArraySet:
		fmt.Fprintf(b, "%s%s %s[%s] <- %s", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]), reg(instr.Args[2]))
	case ir.OpArrayPush:
		fmt.Fprintf(b, "%s%s %s <- %s", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]))
	case ir.OpArrayCount:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, reg(instr.Args[0]))
	case ir.OpArrayKeyExists:
		fmt.Fprintf(b, "%s%s %s[%s]", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]))
	case ir.OpArrayUnset:
		fmt.Fprintf(b, "%s%s %s[%s]", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]))

	case ir.OpConcat:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, regList(instr.Args))
	case ir.OpStrlen:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, reg(instr.Args[0]))
	case ir.OpInterpolate:
		fmt.Fprintf(b, "%s%s [%s]", prefix, mnemonic, regList(instr.Parts))

	case ir.OpNewObject:
		fmt.Fprintf(b, "%s%s %s(%s)", prefix, mnemonic, instr.Name, regList(instr.CallArgs))
	case ir.OpPropertyGet:
		fmt.Fprintf(b, "%s%s %s.%s", prefix, mnemonic, reg(instr.Args[0]), instr.Name)
	case ir.OpPropertySet:
		fmt.Fprintf(b, "%s%s %s.%s <- %s", prefix, mnemonic, reg(instr.Args[0]), instr.Name, reg(instr.Args[1]))
	case ir.OpMethodCall:
		fmt.Fprintf(b, "%s%s %s.%s(%s)", prefix, mnemonic, reg(instr.Args[0]), instr.Name, regList(instr.CallArgs))
	case ir.OpClone:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, reg(instr.Args[0]))
	case ir.OpInstanceof:
		fmt.Fprintf(b, "%s%s %s, %s", prefix, mnemonic, reg(instr.Args[0]), instr.Name)

	case ir.OpBox:
		fmt.Fprintf(b, "%s%s %s : %s", prefix, mnemonic, reg(instr.Args[0]), instr.FromType.String())
	case ir.OpUnbox:
		fmt.Fprintf(b, "%s%s %s : %s", prefix, mnemonic, reg(instr.Args[0]), instr.ToType.String())
	case ir.OpRetain, ir.OpRelease:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, reg(instr.Args[0]))

	case ir.OpPhi:
		parts := make([]string, len(instr.Incoming))
		for i, in := range instr.Incoming {
			parts[i] = fmt.Sprintf("[%s, %s]", reg(in.Value), fn.Block(in.Block).Label)
		}
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, strings.Join(parts, ", "))
	case ir.OpSelect:
		fmt.Fprintf(b, "%s%s %s, %s, %s", prefix, mnemonic, reg(instr.Args[0]), reg(instr.Args[1]), reg(instr.Args[2]))

	case ir.OpTryBegin, ir.OpTryEnd, ir.OpGetException, ir.OpClearException:
		fmt.Fprintf(b, "%s%s", prefix, mnemonic)
	case ir.OpCatch:
		if instr.Name != "" {
			fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, instr.Name)
		} else {
			fmt.Fprintf(b, "%s%s", prefix, mnemonic)
		}

	case ir.OpDebugPrint:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, reg(instr.Args[0]))

	default:
		fmt.Fprintf(b, "%s%s %s", prefix, mnemonic, regList(instr.Args))
	}
}

func printTerminator(b *strings.Builder, fn *ir.Function, t *ir.Terminator) {
	switch t.Kind {
	case ir.TermRet:
		if t.Value != nil {
			fmt.Fprintf(b, "ret %s", reg(*t.Value))
		} else {
			b.WriteString("ret")
		}
	case ir.TermBr:
		fmt.Fprintf(b, "br %s", fn.Block(t.Target).Label)
	case ir.TermCondBr:
		fmt.Fprintf(b, "br %s, %s, %s", reg(t.Cond), fn.Block(t.Then).Label, fn.Block(t.Else).Label)
	case ir.TermSwitch:
		parts := make([]string, len(t.Cases))
		for i, c := range t.Cases {
			parts[i] = fmt.Sprintf("%d -> %s", c.Value, fn.Block(c.Block).Label)
		}
		fmt.Fprintf(b, "switch %s [%s] default %s", reg(t.Cond), strings.Join(parts, ", "), fn.Block(t.Default).Label)
	case ir.TermUnreachable:
		b.WriteString("unreachable")
	case ir.TermThrow:
		fmt.Fprintf(b, "throw %s", reg(*t.Value))
	}
}
