package codegen

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/coregx/lexgen/dfa"
	"github.com/dave/jennifer/jen"
)

const (
	lexerPkg = "github.com/coregx/lexgen/lexer"
	inputPkg = "github.com/coregx/lexgen/input"
)

// GeneratedHeader marks emitted files as generated.
const GeneratedHeader = "Code generated by lexgen. DO NOT EDIT."

// EmitOptions configures Emit.
type EmitOptions struct {
	// Package is the package clause of the generated file.
	Package string

	// Name prefixes every generated declaration. It must be an exported
	// identifier, e.g. "Calc" yields NewCalc, CalcActions and CalcInit.
	Name string

	// TokenType and StateType are the token value and user state types.
	// A package path before the last dot is imported, e.g.
	// "example.com/calc/ast.Token".
	//
	// Defaults: "string" and "struct{}"
	TokenType string
	StateType string

	// Header is an extra comment placed under the generated-code marker,
	// typically the source file name.
	Header string
}

func (o *EmitOptions) validate() error {
	if !validIdent(o.Package) {
		return &Error{Message: fmt.Sprintf("invalid package name %q", o.Package)}
	}
	if !validIdent(o.Name) || ExportName(o.Name) != o.Name {
		return &Error{Message: fmt.Sprintf("name %q is not an exported identifier", o.Name)}
	}
	if o.TokenType == "" {
		o.TokenType = "string"
	}
	if o.StateType == "" {
		o.StateType = "struct{}"
	}
	return nil
}

// Emit renders p as a Go source file.
//
// The file declares rule-set name constants, an actions struct with one field
// per non-skip semantic action, and constructors returning a *lexer.Lexer
// driven by a generated engine. The engine's Step method is a single switch
// on the dispatch state with one case per arm; the last arm is the default
// label. Right contexts become standalone lookahead functions.
func Emit(p *Program, opts EmitOptions) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(p.Arms) == 0 {
		return nil, &Error{Message: "program has no arms"}
	}
	fields, err := fieldNames(p)
	if err != nil {
		return nil, err
	}
	e := &emitter{
		p:      p,
		opts:   opts,
		name:   opts.Name,
		lname:  unexportName(opts.Name),
		fields: fields,
	}

	f := jen.NewFile(opts.Package)
	f.HeaderComment(GeneratedHeader)
	if opts.Header != "" {
		f.HeaderComment(opts.Header)
	}
	f.ImportName(lexerPkg, "lexer")
	f.ImportName(inputPkg, "input")

	e.ruleSets(f)
	e.tables(f)
	e.actionsType(f)
	e.constructors(f)
	e.engine(f)
	e.rightContexts(f)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, &Error{Message: "render", Cause: err}
	}
	return buf.Bytes(), nil
}

type emitter struct {
	p      *Program
	opts   EmitOptions
	name   string
	lname  string
	fields []string
}

func (e *emitter) tok() jen.Code { return typeCode(e.opts.TokenType) }
func (e *emitter) st() jen.Code  { return typeCode(e.opts.StateType) }

func (e *emitter) lexerType() *jen.Statement {
	return jen.Op("*").Qual(lexerPkg, "Lexer").Types(e.tok(), e.st())
}

func (e *emitter) actionType() *jen.Statement {
	return jen.Qual(lexerPkg, "Action").Types(e.tok(), e.st())
}

func (e *emitter) engineName() string   { return e.lname + "Engine" }
func (e *emitter) ruleSetsVar() string  { return e.lname + "RuleSets" }
func (e *emitter) tableVar(i int) string { return e.lname + "Table" + strconv.Itoa(i) }
func (e *emitter) rightCtxFunc(i dfa.RightCtxID) string {
	return e.lname + "RightCtx" + strconv.Itoa(int(i))
}

func (e *emitter) ruleSets(f *jen.File) {
	defs := make([]jen.Code, 0, len(e.p.RuleSets))
	arms := jen.Dict{}
	for _, rs := range e.p.RuleSets {
		defs = append(defs, jen.Id(e.name+ExportName(rs.Name)).Op("=").Lit(rs.Name))
		arms[jen.Lit(rs.Name)] = jen.Lit(rs.Arm)
	}
	f.Comment(fmt.Sprintf("Rule sets of %s, for use with lexer.Lexer.Switch.", e.name))
	f.Const().Defs(defs...)
	f.Var().Id(e.ruleSetsVar()).Op("=").Map(jen.String()).Int().Values(arms)
}

func (e *emitter) tables(f *jen.File) {
	for i, table := range e.p.Tables {
		items := make([]jen.Code, len(table))
		for j, rg := range table {
			items[j] = jen.Values(jen.LitRune(rg[0]), jen.LitRune(rg[1]))
		}
		f.Var().Id(e.tableVar(i)).Op("=").Index().Index(jen.Lit(2)).Rune().Values(items...)
	}
}

func (e *emitter) actionsType(f *jen.File) {
	var fields []jen.Code
	for i, a := range e.p.Actions {
		switch a.Kind {
		case dfa.ActionSimple:
			fields = append(fields, jen.Id(e.fields[i]).Func().Params(jen.Id("l").Add(e.lexerType())).Add(e.tok()))
		case dfa.ActionCustom:
			fields = append(fields, jen.Id(e.fields[i]).Add(e.actionType()))
		}
	}
	f.Comment(fmt.Sprintf("%sActions holds the semantic actions of %s. Every field must be set;", e.name, e.name))
	f.Comment("skip actions have no field.")
	f.Type().Id(e.name + "Actions").Struct(fields...)
}

func (e *emitter) constructors(f *jen.File) {
	params := []jen.Code{
		jen.Id("src").String(),
		jen.Id("user").Add(e.st()),
		jen.Id("actions").Id(e.name + "Actions"),
	}

	f.Comment(fmt.Sprintf("New%s starts a %s session over src. It panics if an action is missing.", e.name, e.name))
	f.Func().Id("New"+e.name).Params(params...).Add(e.lexerType()).Block(
		jen.List(jen.Id("l"), jen.Err()).Op(":=").Id("New"+e.name+"WithConfig").Call(
			jen.Id("src"), jen.Id("user"), jen.Id("actions"), jen.Qual(lexerPkg, "DefaultConfig").Call()),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())),
		jen.Return(jen.Id("l")),
	)

	f.Comment(fmt.Sprintf("New%sWithConfig starts a %s session over src with cfg.", e.name, e.name))
	f.Func().Id("New"+e.name+"WithConfig").Params(append(params, jen.Id("cfg").Qual(lexerPkg, "Config"))...).
		Params(e.lexerType(), jen.Error()).Block(
		jen.List(jen.Id("e"), jen.Err()).Op(":=").Id("new"+e.name+"Engine").Call(jen.Id("actions")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Return(jen.Qual(lexerPkg, "NewWithConfig").Types(e.tok(), e.st()).Call(
			jen.Id("src"), jen.Id("user"), jen.Id("e"), jen.Id("cfg"))),
	)
}

func (e *emitter) engine(f *jen.File) {
	n := len(e.p.Actions)
	f.Type().Id(e.engineName()).Struct(
		jen.Id("actions").Index(jen.Lit(n)).Add(e.actionType()),
	)

	body := []jen.Code{jen.Id("e").Op(":=").Op("&").Id(e.engineName()).Values()}
	for i, a := range e.p.Actions {
		var impl jen.Code
		switch a.Kind {
		case dfa.ActionSkip:
			impl = jen.Qual(lexerPkg, "Skip").Types(e.tok(), e.st()).Call()
		case dfa.ActionSimple:
			body = append(body, e.requireAction(e.fields[i], a))
			impl = jen.Qual(lexerPkg, "Simple").Call(jen.Id("a").Dot(e.fields[i]))
		default:
			body = append(body, e.requireAction(e.fields[i], a))
			impl = jen.Id("a").Dot(e.fields[i])
		}
		body = append(body, jen.Id("e").Dot("actions").Index(jen.Lit(i)).Op("=").Add(impl))
	}
	body = append(body, jen.Return(jen.Id("e"), jen.Nil()))
	f.Func().Id("new"+e.name+"Engine").Params(jen.Id("a").Id(e.name+"Actions")).
		Params(jen.Op("*").Id(e.engineName()), jen.Error()).Block(body...)

	recv := jen.Id("e").Op("*").Id(e.engineName())
	f.Func().Params(recv).Id("RuleSets").Params().Map(jen.String()).Int().Block(
		jen.Return(jen.Id(e.ruleSetsVar())),
	)

	arms := make([]jen.Code, len(e.p.Arms))
	for i, arm := range e.p.Arms {
		label := jen.Case(jen.Lit(i))
		if i == len(e.p.Arms)-1 {
			label = jen.Default()
		}
		arms[i] = label.Block(e.block(arm.Block)...)
	}
	f.Func().Params(jen.Id("e").Op("*").Id(e.engineName())).Id("Step").
		Params(jen.Id("l").Add(e.lexerType())).
		Params(
			jen.Id("tok").Qual(lexerPkg, "Token").Types(e.tok()),
			jen.Id("yield").Bool(),
			jen.Id("err").Error(),
		).
		Block(e.dispatch(arms)...)
}

// dispatch renders the body of Step. The bare return is only emitted when
// some arm ends without returning.
func (e *emitter) dispatch(arms []jen.Code) []jen.Code {
	body := []jen.Code{jen.Switch(jen.Id("l").Dot("DispatchState").Call()).Block(arms...)}
	for _, arm := range e.p.Arms {
		if !arm.Block.Terminates() {
			return append(body, jen.Return())
		}
	}
	return body
}

// requireAction renders the nil check of a user-supplied action field. The
// error matches the one lexer.BindActions reports.
func (e *emitter) requireAction(field string, a dfa.Action) jen.Code {
	msg := fmt.Sprintf("no implementation for %s action %q", a.Kind, a.Name)
	return jen.If(jen.Id("a").Dot(field).Op("==").Nil()).Block(
		jen.Return(jen.Nil(), jen.Op("&").Qual(lexerPkg, "Error").Values(jen.Dict{
			jen.Id("Kind"):    jen.Qual(lexerPkg, "InvalidConfig"),
			jen.Id("Message"): jen.Lit(msg),
		})),
	)
}

// block renders a state's code. Steps that do not return fall through to the
// bare return at the end of Step, see dispatch.
func (e *emitter) block(b *Block) []jen.Code {
	var out []jen.Code
	if b.Start {
		out = append(out, jen.Id("l").Dot("ResetMatch").Call())
	} else if len(b.Accepting) > 0 {
		out = append(out, e.remember(b.Accepting))
	}

	r := jen.Id("r")
	if len(b.Cases) == 0 {
		r = jen.Id("_")
	}
	out = append(out, jen.List(r, jen.Id("ok")).Op(":=").Id("l").Dot("NextRune").Call())

	eoi := append([]jen.Code{jen.Id("l").Dot("SetDone").Call()}, e.step(&b.EOI)...)
	if !b.EOI.Terminates() {
		eoi = append(eoi, jen.Return())
	}
	out = append(out, jen.If(jen.Op("!").Id("ok")).Block(eoi...))

	if len(b.Cases) == 0 {
		if b.Default.Kind == StepInline {
			// The inlined block declares its own r and ok.
			return append(out, jen.Block(e.step(&b.Default)...))
		}
		return append(out, e.step(&b.Default)...)
	}
	clauses := make([]jen.Code, 0, len(b.Cases)+1)
	for _, c := range b.Cases {
		clauses = append(clauses, jen.Case(e.guard(c.Guard)...).Block(e.step(&c.Step)...))
	}
	clauses = append(clauses, jen.Default().Block(e.step(&b.Default)...))
	return append(out, jen.Switch().Block(clauses...))
}

// remember renders the entry of an accepting state as an if/else chain over
// its candidates.
func (e *emitter) remember(cands []dfa.Accepting) jen.Code {
	set := func(c dfa.Accepting) jen.Code {
		return jen.Id("l").Dot("SetAccepting").Call(e.action(c.Action))
	}
	if !cands[0].HasRightCtx() {
		return set(cands[0])
	}
	stmt := jen.If(e.rightCtxCall(cands[0].RightCtx, jen.Id("l").Dot("Remaining").Call())).Block(set(cands[0]))
	for _, c := range cands[1:] {
		if !c.HasRightCtx() {
			stmt.Else().Block(set(c))
			break
		}
		stmt.Else().If(e.rightCtxCall(c.RightCtx, jen.Id("l").Dot("Remaining").Call())).Block(set(c))
	}
	return stmt
}

func (e *emitter) step(s *Step) []jen.Code {
	switch s.Kind {
	case StepGoto:
		return []jen.Code{jen.Id("l").Dot("SetDispatchState").Call(jen.Lit(s.Next))}
	case StepInline:
		return e.block(s.Block)
	case StepAccept:
		var out []jen.Code
		for _, c := range s.Accept {
			invoke := []jen.Code{
				jen.Id("l").Dot("ResetAccepting").Call(),
				jen.Return(jen.Id("l").Dot("Invoke").Call(e.action(c.Action))),
			}
			if !c.HasRightCtx() {
				return append(out, invoke...)
			}
			out = append(out, jen.If(e.rightCtxCall(c.RightCtx, jen.Id("l").Dot("Remaining").Call())).Block(invoke...))
		}
		return append(out, e.step(s.Else)...)
	case StepBacktrack:
		return []jen.Code{jen.Return(jen.Id("l").Dot("Backtrack").Call())}
	default:
		return nil
	}
}

func (e *emitter) action(id dfa.ActionID) jen.Code {
	return jen.Id("e").Dot("actions").Index(jen.Lit(int(id)))
}

func (e *emitter) rightCtxCall(id dfa.RightCtxID, cursor jen.Code) jen.Code {
	return jen.Id(e.rightCtxFunc(id)).Call(cursor)
}

// guard renders the expressions of a case clause. A tagless switch case with
// several expressions matches when any of them holds.
func (e *emitter) guard(g Guard) []jen.Code {
	if g.Table >= 0 {
		return []jen.Code{jen.Qual(lexerPkg, "InTable").Call(jen.Id("r"), jen.Id(e.tableVar(g.Table)))}
	}
	out := make([]jen.Code, 0, len(g.Chars)+len(g.Ranges))
	for _, c := range g.Chars {
		out = append(out, jen.Id("r").Op("==").LitRune(c))
	}
	for _, rg := range g.Ranges {
		if rg[0] == rg[1] {
			out = append(out, jen.Id("r").Op("==").LitRune(rg[0]))
			continue
		}
		out = append(out, jen.Id("r").Op(">=").LitRune(rg[0]).Op("&&").Id("r").Op("<=").LitRune(rg[1]))
	}
	return out
}

func (e *emitter) rightContexts(f *jen.File) {
	for i, rc := range e.p.RightCtx {
		arms := make([]jen.Code, len(rc.Arms))
		for j := range rc.Arms {
			label := jen.Case(jen.Lit(j))
			if j == len(rc.Arms)-1 {
				label = jen.Default()
			}
			arms[j] = label.Block(e.rightCtxArm(&rc.Arms[j])...)
		}
		f.Func().Id(e.rightCtxFunc(dfa.RightCtxID(i))).Params(jen.Id("c").Qual(inputPkg, "Cursor")).Bool().Block(
			jen.Id("state").Op(":=").Lit(0),
			jen.For().Block(
				jen.Switch(jen.Id("state")).Block(arms...),
			),
		)
	}
}

func (e *emitter) rightCtxArm(arm *RCArm) []jen.Code {
	if arm.Accepting {
		return []jen.Code{jen.Return(jen.True())}
	}
	r := jen.Id("r")
	if len(arm.Cases) == 0 {
		r = jen.Id("_")
	}
	eoi := rcTarget(arm.EOI)
	if arm.EOI.Kind == RCNext {
		eoi = append(eoi, jen.Continue())
	}
	out := []jen.Code{
		jen.List(r, jen.Id("n")).Op(":=").Id("c").Dot("Next").Call(),
		jen.If(jen.Id("n").Op("==").Lit(0)).Block(eoi...),
	}
	if len(arm.Cases) == 0 {
		return append(out, rcTarget(arm.Default)...)
	}
	clauses := make([]jen.Code, 0, len(arm.Cases)+1)
	for _, c := range arm.Cases {
		clauses = append(clauses, jen.Case(e.guard(c.Guard)...).Block(rcTarget(c.Target)...))
	}
	clauses = append(clauses, jen.Default().Block(rcTarget(arm.Default)...))
	return append(out, jen.Switch().Block(clauses...))
}

func rcTarget(t RCTarget) []jen.Code {
	switch t.Kind {
	case RCAccept:
		return []jen.Code{jen.Return(jen.True())}
	case RCFail:
		return []jen.Code{jen.Return(jen.False())}
	default:
		return []jen.Code{jen.Id("state").Op("=").Lit(t.Next)}
	}
}
