// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package decode

import (
	"fmt"
	"strconv"
	"strings"
)

// mnemonics maps the WAT text mnemonic to its OpKind for every opcode
// this subset loader supports. The block-structured opcodes
// (block/loop/if) are not in the table and are not accepted; opcodes
// taking an index read it from the following atom in parseInstrs below.
var mnemonics = map[string]OpKind{
	"unreachable": OpUnreachable,
	"nop":         OpNop,
	"return":      OpReturn,
	"drop":        OpDrop,
	"select":      OpSelect,

	"i32.const": OpI32Const,
	"i64.const": OpI64Const,

	"i32.eqz": OpI32Eqz, "i32.eq": OpI32Eq, "i32.ne": OpI32Ne,
	"i32.lt_s": OpI32LtS, "i32.lt_u": OpI32LtU,
	"i32.gt_s": OpI32GtS, "i32.gt_u": OpI32GtU,
	"i32.le_s": OpI32LeS, "i32.le_u": OpI32LeU,
	"i32.ge_s": OpI32GeS, "i32.ge_u": OpI32GeU,

	"i32.clz": OpI32Clz, "i32.ctz": OpI32Ctz, "i32.popcnt": OpI32Popcnt,
	"i32.add": OpI32Add, "i32.sub": OpI32Sub, "i32.mul": OpI32Mul,
	"i32.div_s": OpI32DivS, "i32.div_u": OpI32DivU,
	"i32.rem_s": OpI32RemS, "i32.rem_u": OpI32RemU,
	"i32.and": OpI32And, "i32.or": OpI32Or, "i32.xor": OpI32Xor,
	"i32.shl": OpI32Shl, "i32.shr_s": OpI32ShrS, "i32.shr_u": OpI32ShrU,
	"i32.rotl": OpI32Rotl, "i32.rotr": OpI32Rotr,

	"i64.eqz": OpI64Eqz, "i64.eq": OpI64Eq, "i64.ne": OpI64Ne,
	"i64.lt_s": OpI64LtS, "i64.lt_u": OpI64LtU,
	"i64.gt_s": OpI64GtS, "i64.gt_u": OpI64GtU,
	"i64.le_s": OpI64LeS, "i64.le_u": OpI64LeU,
	"i64.ge_s": OpI64GeS, "i64.ge_u": OpI64GeU,

	"i64.clz": OpI64Clz, "i64.ctz": OpI64Ctz, "i64.popcnt": OpI64Popcnt,
	"i64.add": OpI64Add, "i64.sub": OpI64Sub, "i64.mul": OpI64Mul,
	"i64.div_s": OpI64DivS, "i64.div_u": OpI64DivU,
	"i64.rem_s": OpI64RemS, "i64.rem_u": OpI64RemU,
	"i64.and": OpI64And, "i64.or": OpI64Or, "i64.xor": OpI64Xor,
	"i64.shl": OpI64Shl, "i64.shr_s": OpI64ShrS, "i64.shr_u": OpI64ShrU,
	"i64.rotl": OpI64Rotl, "i64.rotr": OpI64Rotr,

	"i32.wrap_i64": OpI32WrapI64,
	"i64.extend_i32_s": OpI64ExtendI32S, "i64.extend_i32_u": OpI64ExtendI32U,
	"i32.extend8_s": OpI32Extend8S, "i32.extend16_s": OpI32Extend16S,
	"i64.extend8_s": OpI64Extend8S, "i64.extend16_s": OpI64Extend16S,
	"i64.extend32_s": OpI64Extend32S,

	"local.get": OpLocalGet, "local.set": OpLocalSet, "local.tee": OpLocalTee,
	"global.get": OpGlobalGet, "global.set": OpGlobalSet,

	"i32.load": OpI32Load, "i64.load": OpI64Load,
	"i32.store": OpI32Store, "i64.store": OpI64Store,
	"memory.size": OpMemorySize, "memory.grow": OpMemoryGrow,
	"memory.fill": OpMemoryFill, "memory.copy": OpMemoryCopy,

	"call": OpCall, "br": OpBr, "br_if": OpBrIf,
}

// sexpr is a minimal s-expression node: either an atom or a list.
type sexpr struct {
	atom string
	list []*sexpr
}

func (s *sexpr) isAtom() bool { return s.list == nil }

// ParseWAT parses the minimal WAT subset this loader supports: modules
// containing (memory N), (func ...), and (export ...) forms, with
// straight-line bodies built from the mnemonic table above;
// parenthesized nested instruction forms inside a body are skipped. This is intentionally not a general WAT/WASM parser (that
// names the full parser as an out-of-scope collaborator); it covers
// enough surface to build the interpreter's own test modules.
func ParseWAT(src string) (Module, error) {
	toks := tokenize(src)
	p := &watParser{toks: toks}
	root, err := p.parseSExpr()
	if err != nil {
		return Module{}, err
	}
	if root.isAtom() || len(root.list) == 0 || root.list[0].atom != "module" {
		return Module{}, fmt.Errorf("decode: expected (module ...) at top level")
	}

	b := NewBuilder()
	funcNames := map[string]int{}
	var funcForms []*sexpr

	for _, form := range root.list[1:] {
		if form.isAtom() {
			continue
		}
		head := form.list[0].atom
		switch head {
		case "memory":
			n, err := strconv.Atoi(form.list[1].atom)
			if err != nil {
				return Module{}, fmt.Errorf("decode: bad memory size: %w", err)
			}
			b.Memory(n)
		case "func":
			funcForms = append(funcForms, form)
		}
	}

	// Pre-register names so forward references (recursive/mutual calls)
	// resolve regardless of declaration order.
	nextIdx := len(b.mod.Imports)
	for _, form := range funcForms {
		idx := nextIdx
		nextIdx++
		for _, part := range form.list[1:] {
			if part.isAtom() && strings.HasPrefix(part.atom, "$") {
				funcNames[part.atom] = idx
				break
			}
		}
	}

	for _, form := range funcForms {
		if err := parseFunc(b, form, funcNames); err != nil {
			return Module{}, err
		}
	}

	for _, form := range root.list[1:] {
		if form.isAtom() || form.list[0].atom != "export" {
			continue
		}
		name := strings.Trim(form.list[1].atom, "\"")
		target := form.list[2]
		if target.isAtom() || target.list[0].atom != "func" {
			continue
		}
		idx, err := resolveFuncRef(target.list[1].atom, funcNames)
		if err != nil {
			return Module{}, err
		}
		b.Export(name, ExportFunc, idx)
	}

	return b.Build(), nil
}

func resolveFuncRef(ref string, names map[string]int) (int, error) {
	if strings.HasPrefix(ref, "$") {
		idx, ok := names[ref]
		if !ok {
			return 0, fmt.Errorf("decode: unknown function name %q", ref)
		}
		return idx, nil
	}
	return strconv.Atoi(ref)
}

func parseFunc(b *Builder, form *sexpr, names map[string]int) error {
	var params, results []ValType
	var locals []ValType
	var bodyForms []*sexpr

	for _, part := range form.list[1:] {
		if part.isAtom() {
			continue
		}
		switch part.list[0].atom {
		case "param":
			for _, t := range part.list[1:] {
				params = append(params, valType(t.atom))
			}
		case "result":
			for _, t := range part.list[1:] {
				results = append(results, valType(t.atom))
			}
		case "local":
			for _, t := range part.list[1:] {
				locals = append(locals, valType(t.atom))
			}
		default:
			bodyForms = append(bodyForms, part)
		}
	}

	code, err := parseInstrs(bodyForms, names)
	if err != nil {
		return err
	}
	b.Func(FuncType{Params: params, Results: results}, locals, code)
	return nil
}

func valType(s string) ValType {
	switch s {
	case "i64":
		return ValI64
	case "funcref":
		return ValFuncRef
	default:
		return ValI32
	}
}

// immediateOps lists mnemonics that consume one trailing atom as an
// integer (or function-reference) immediate, since this flat text
// subset has no parenthesized argument lists.
var immediateOps = map[string]bool{
	"i32.const": true, "i64.const": true,
	"local.get": true, "local.set": true, "local.tee": true,
	"global.get": true, "global.set": true,
	"br": true, "br_if": true, "call": true,
}

func parseInstrs(forms []*sexpr, names map[string]int) ([]Instruction, error) {
	var out []Instruction
	for i := 0; i < len(forms); i++ {
		f := forms[i]
		if !f.isAtom() {
			continue // nested block forms are out of scope for this subset.
		}
		mnemonic := f.atom
		kind, ok := mnemonics[mnemonic]
		if !ok {
			return nil, fmt.Errorf("decode: unsupported opcode %q in WAT subset loader", mnemonic)
		}
		if !immediateOps[mnemonic] {
			out = append(out, I(kind))
			continue
		}
		i++
		if i >= len(forms) || !forms[i].isAtom() {
			return nil, fmt.Errorf("decode: %q expects an immediate", mnemonic)
		}
		imm := forms[i].atom
		if mnemonic == "call" {
			idx, err := resolveFuncRef(imm, names)
			if err != nil {
				return nil, err
			}
			out = append(out, I(OpCall, int64(idx)))
			continue
		}
		v, err := strconv.ParseInt(imm, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode: bad immediate for %q: %w", mnemonic, err)
		}
		out = append(out, I(kind, v))
	}
	return out, nil
}

// tokenize splits src into a flat s-expression token stream, treating
// parentheses as standalone tokens and everything else as
// whitespace-delimited atoms (quoted strings are kept as one atom).
func tokenize(src string) []string {
	var toks []string
	var cur strings.Builder
	inStr := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range src {
		switch {
		case inStr:
			cur.WriteRune(r)
			if r == '"' {
				inStr = false
			}
		case r == '"':
			cur.WriteRune(r)
			inStr = true
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ';':
			flush()
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type watParser struct {
	toks []string
	pos  int
}

func (p *watParser) parseSExpr() (*sexpr, error) {
	if p.pos >= len(p.toks) {
		return nil, fmt.Errorf("decode: unexpected end of input")
	}
	tok := p.toks[p.pos]
	p.pos++
	if tok == "(" {
		n := &sexpr{}
		for p.pos < len(p.toks) && p.toks[p.pos] != ")" {
			child, err := p.parseSExpr()
			if err != nil {
				return nil, err
			}
			n.list = append(n.list, child)
		}
		if p.pos >= len(p.toks) {
			return nil, fmt.Errorf("decode: unbalanced parentheses")
		}
		p.pos++ // consume ")"
		return n, nil
	}
	if tok == ")" {
		return nil, fmt.Errorf("decode: unexpected ')'")
	}
	return &sexpr{atom: tok}, nil
}
