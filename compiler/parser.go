package compiler

import (
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/chazu/som/vm"
)

// ---------------------------------------------------------------------------
// Parser: single-pass recursive descent emitting bytecode
// ---------------------------------------------------------------------------

// Parser reads one class definition and generates code for it as it goes.
// There is no syntax tree: every production emits into the MethodGen of
// the method or block being parsed.
type Parser struct {
	u        *vm.Universe
	filename string
	lexer    *Lexer
	cgen     *ClassGen

	sym  Token // current token
	next Token // lookahead, valid while lexer.Peeked()
}

// NewParser creates a parser reading source from r. filename is used in
// diagnostics only.
func NewParser(u *vm.Universe, r io.Reader, filename string) *Parser {
	p := &Parser{
		u:        u,
		filename: filename,
		lexer:    NewLexer(r),
		cgen:     NewClassGen(u),
	}
	p.advance()
	return p
}

// NewStringParser creates a parser over a string.
func NewStringParser(u *vm.Universe, source, filename string) *Parser {
	return NewParser(u, strings.NewReader(source), filename)
}

// ClassDef parses a complete class definition:
//
//	Name = Super ( |fields| methods ---- |classFields| classMethods )
func (p *Parser) ClassDef() (cgen *ClassGen, err error) {
	defer recoverFailure(&err)

	p.cgen.SetName(p.u.SymbolFor(p.sym.Text))
	p.expect(TokenIdentifier)
	p.expect(TokenEqual)
	p.superclass()

	p.expect(TokenNewTerm)
	p.classBody()
	if p.accept(TokenSeparator) {
		p.cgen.StartClassSide()
		p.classBody()
	}
	p.expect(TokenEndTerm)
	return p.cgen, nil
}

// ---------------------------------------------------------------------------
// Token handling
// ---------------------------------------------------------------------------

func (p *Parser) advance() {
	p.sym = p.lexer.Next()
}

func (p *Parser) peek() Token {
	p.next = p.lexer.Peek()
	return p.next
}

func (p *Parser) peekIfNecessary() Token {
	if !p.lexer.Peeked() {
		return p.peek()
	}
	return p.next
}

func (p *Parser) accept(t TokenType) bool {
	if p.sym.Type == t {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType) {
	if !p.accept(t) {
		p.unexpected(t)
	}
}

func (p *Parser) expectOneOf(ts ...TokenType) {
	for _, t := range ts {
		if p.accept(t) {
			return
		}
	}
	p.unexpected(ts...)
}

func (p *Parser) symIsMethod() bool {
	switch p.sym.Type {
	case TokenIdentifier, TokenKeyword:
		return true
	}
	return p.sym.Type.IsBinaryOperator()
}

// ---------------------------------------------------------------------------
// Class structure
// ---------------------------------------------------------------------------

func (p *Parser) superclass() {
	superName := p.u.SymbolFor("Object")
	if p.sym.Type == TokenIdentifier {
		superName = p.u.SymbolFor(p.sym.Text)
		p.advance()
	}
	p.cgen.SetSuperName(superName)

	// nil marks the root class
	if superName.String() == "nil" {
		return
	}
	super, err := p.u.LoadClass(superName)
	if err != nil {
		p.failWrapping(err, DefinitionError, "was not able to load super class: %s", superName)
	}
	p.cgen.SetFieldsOfSuper(super)
}

func (p *Parser) classBody() {
	p.fields()
	for p.symIsMethod() {
		mgen := NewMethodGen(p.cgen)
		mgen.AddArgument("self")
		p.method(mgen)
		p.cgen.AddMethod(mgen.Assemble())
	}
}

func (p *Parser) fields() {
	if !p.accept(TokenOr) {
		return
	}
	for p.sym.Type == TokenIdentifier {
		p.cgen.AddField(p.u.SymbolFor(p.variable()))
	}
	p.expect(TokenOr)
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

func (p *Parser) method(mgen *MethodGen) {
	p.pattern(mgen)
	p.expect(TokenEqual)
	if p.sym.Type == TokenPrimitive {
		mgen.MarkPrimitive()
		p.advance()
		return
	}
	p.methodBlock(mgen)
}

func (p *Parser) pattern(mgen *MethodGen) {
	switch p.sym.Type {
	case TokenIdentifier:
		mgen.SetSignature(p.unarySelector())
	case TokenKeyword:
		p.keywordPattern(mgen)
	default:
		mgen.SetSignature(p.binarySelector())
		mgen.AddArgument(p.variable())
	}
}

func (p *Parser) keywordPattern(mgen *MethodGen) {
	var kw strings.Builder
	for {
		kw.WriteString(p.keyword())
		mgen.AddArgument(p.variable())
		if p.sym.Type != TokenKeyword {
			break
		}
	}
	mgen.SetSignature(p.u.SymbolFor(kw.String()))
}

func (p *Parser) methodBlock(mgen *MethodGen) {
	p.expect(TokenNewTerm)
	p.blockContents(mgen)
	// the last expression had no terminating period: discard it, answer self
	if !mgen.IsFinished() {
		p.emitPop(mgen)
		p.emitPushArgument(mgen, 0, 0)
		p.emitReturnLocal(mgen)
		mgen.MarkFinished()
	}
	p.expect(TokenEndTerm)
}

func (p *Parser) unarySelector() *vm.Symbol {
	return p.u.SymbolFor(p.identifier())
}

func (p *Parser) binarySelector() *vm.Symbol {
	text := p.sym.Text
	if !p.sym.Type.IsBinaryOperator() {
		p.unexpected(TokenOperatorSequence)
	}
	p.advance()
	return p.u.SymbolFor(text)
}

func (p *Parser) keywordSelector() *vm.Symbol {
	text := p.sym.Text
	p.expectOneOf(TokenKeyword, TokenKeywordSequence)
	return p.u.SymbolFor(text)
}

func (p *Parser) selector() *vm.Symbol {
	switch {
	case p.sym.Type.IsBinaryOperator():
		return p.binarySelector()
	case p.sym.Type == TokenKeyword, p.sym.Type == TokenKeywordSequence:
		return p.keywordSelector()
	}
	return p.unarySelector()
}

// identifier accepts an identifier; primitive is an ordinary name outside
// method bodies.
func (p *Parser) identifier() string {
	text := p.sym.Text
	if !p.accept(TokenPrimitive) {
		p.expect(TokenIdentifier)
	}
	return text
}

func (p *Parser) keyword() string {
	text := p.sym.Text
	p.expect(TokenKeyword)
	return text
}

func (p *Parser) variable() string {
	return p.identifier()
}

// ---------------------------------------------------------------------------
// Bodies and statements
// ---------------------------------------------------------------------------

func (p *Parser) blockContents(mgen *MethodGen) {
	if p.accept(TokenOr) {
		for p.sym.Type == TokenIdentifier {
			mgen.AddLocal(p.variable())
		}
		p.expect(TokenOr)
	}
	p.blockBody(mgen, false)
}

func (p *Parser) blockBody(mgen *MethodGen, seenPeriod bool) {
	for {
		switch {
		case p.accept(TokenExit):
			p.result(mgen)
			return

		case p.sym.Type == TokenEndBlock:
			// a block answers its last expression whether or not a period
			// followed it
			if seenPeriod {
				mgen.RemoveLastPop()
			}
			if mgen.IsBlock() && !mgen.HasBytecodes() {
				p.emitPushGlobal(mgen, p.u.SymbolFor("nil"))
			}
			p.emitReturnLocal(mgen)
			mgen.MarkFinished()
			return

		case p.sym.Type == TokenEndTerm:
			p.emitPushArgument(mgen, 0, 0)
			p.emitReturnLocal(mgen)
			mgen.MarkFinished()
			return
		}

		p.expression(mgen)
		if !p.accept(TokenPeriod) {
			return
		}
		p.emitPop(mgen)
		seenPeriod = true
	}
}

func (p *Parser) result(mgen *MethodGen) {
	p.expression(mgen)
	if mgen.IsBlock() {
		p.emitReturnNonLocal(mgen)
	} else {
		p.emitReturnLocal(mgen)
	}
	mgen.MarkFinished()
	p.accept(TokenPeriod)
}

func (p *Parser) expression(mgen *MethodGen) {
	if p.peekIfNecessary().Type == TokenAssign {
		p.assignation(mgen)
		return
	}
	p.evaluation(mgen)
}

// assignation stores the value of an evaluation into every target of
// a := b := expr. One DUP per target leaves the value on the stack as the
// result of the whole expression.
func (p *Parser) assignation(mgen *MethodGen) {
	var targets []string
	for p.sym.Type == TokenIdentifier {
		targets = append(targets, p.variable())
		p.expect(TokenAssign)
		if p.sym.Type != TokenIdentifier || p.peek().Type != TokenAssign {
			break
		}
	}
	p.evaluation(mgen)

	for range targets {
		p.emitDup(mgen)
	}
	for _, name := range targets {
		p.genPopVariable(mgen, name)
	}
}

func (p *Parser) evaluation(mgen *MethodGen) {
	superSend := p.primary(mgen)
	if p.symIsMethod() {
		p.messages(mgen, superSend)
	}
}

func (p *Parser) primary(mgen *MethodGen) (superSend bool) {
	switch p.sym.Type {
	case TokenIdentifier, TokenPrimitive:
		name := p.variable()
		if name == "super" {
			superSend = true
			name = "self"
		}
		p.genPushVariable(mgen, name)

	case TokenNewTerm:
		p.expect(TokenNewTerm)
		p.expression(mgen)
		p.expect(TokenEndTerm)

	case TokenNewBlock:
		bgen := NewBlockGen(mgen)
		p.nestedBlock(bgen)
		block := bgen.AssembleMethod()
		p.emitPushBlock(mgen, block)

	default:
		p.literal(mgen)
	}
	return superSend
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func (p *Parser) messages(mgen *MethodGen, superSend bool) {
	switch {
	case p.sym.Type == TokenIdentifier:
		// only the first message of a cascade of sends can go to super
		for p.sym.Type == TokenIdentifier {
			p.unaryMessage(mgen, superSend)
			superSend = false
		}
		for p.sym.Type.IsBinaryOperator() {
			p.binaryMessage(mgen, false)
		}
		if p.sym.Type == TokenKeyword {
			p.keywordMessage(mgen, false)
		}

	case p.sym.Type.IsBinaryOperator():
		for p.sym.Type.IsBinaryOperator() {
			p.binaryMessage(mgen, superSend)
			superSend = false
		}
		if p.sym.Type == TokenKeyword {
			p.keywordMessage(mgen, false)
		}

	default:
		p.keywordMessage(mgen, superSend)
	}
}

func (p *Parser) unaryMessage(mgen *MethodGen, superSend bool) {
	p.emitSend(mgen, p.unarySelector(), superSend)
}

func (p *Parser) binaryMessage(mgen *MethodGen, superSend bool) {
	sel := p.binarySelector()
	p.binaryOperand(mgen)
	p.emitSend(mgen, sel, superSend)
}

func (p *Parser) binaryOperand(mgen *MethodGen) bool {
	superSend := p.primary(mgen)
	for p.sym.Type == TokenIdentifier {
		p.unaryMessage(mgen, superSend)
		superSend = false
	}
	return superSend
}

func (p *Parser) keywordMessage(mgen *MethodGen, superSend bool) {
	var kw strings.Builder
	for {
		kw.WriteString(p.keyword())
		p.formula(mgen)
		if p.sym.Type != TokenKeyword {
			break
		}
	}
	p.emitSend(mgen, p.u.SymbolFor(kw.String()), superSend)
}

func (p *Parser) formula(mgen *MethodGen) {
	superSend := p.binaryOperand(mgen)
	for p.sym.Type.IsBinaryOperator() {
		p.binaryMessage(mgen, superSend)
		superSend = false
	}
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

func (p *Parser) nestedBlock(bgen *MethodGen) {
	bgen.AddArgument("$blockSelf")
	p.expect(TokenNewBlock)
	if p.sym.Type == TokenColon {
		p.blockArguments(bgen)
		p.expect(TokenOr)
	}

	sig := "$blockMethod" + strings.Repeat(":", len(bgen.Arguments())-1)
	bgen.SetSignature(p.u.SymbolFor(sig))

	p.blockContents(bgen)
	// the last expression had no period; the block answers it
	if !bgen.IsFinished() {
		if !bgen.HasBytecodes() {
			p.emitPushGlobal(bgen, p.u.SymbolFor("nil"))
		}
		p.emitReturnLocal(bgen)
		bgen.MarkFinished()
	}
	p.expect(TokenEndBlock)
}

func (p *Parser) blockArguments(bgen *MethodGen) {
	for p.sym.Type == TokenColon {
		p.advance()
		bgen.AddArgument(p.variable())
	}
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

func (p *Parser) literal(mgen *MethodGen) {
	switch p.sym.Type {
	case TokenPound:
		if p.peekIfNecessary().Type == TokenNewTerm {
			p.literalArray(mgen)
		} else {
			p.literalSymbol(mgen)
		}
	case TokenString:
		p.emitPushConstant(mgen, vm.NewString(p.stringLiteral()))
	default:
		p.emitPushConstant(mgen, p.literalNumber())
	}
}

func (p *Parser) literalNumber() vm.Value {
	if p.accept(TokenMinus) {
		return negate(p.literalDecimal())
	}
	return p.literalDecimal()
}

func (p *Parser) literalDecimal() vm.Value {
	text := p.sym.Text
	switch p.sym.Type {
	case TokenInteger:
		v, ok := vm.ParseInteger(text)
		if !ok {
			p.fail(ParseError, "parsing number literal failed: '%s'", text)
		}
		p.advance()
		return v
	case TokenDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.fail(ParseError, "could not parse double, expected a number but got '%s'", text)
		}
		p.advance()
		return vm.Double(f)
	}
	p.unexpected(TokenInteger, TokenDouble)
	return nil
}

func negate(v vm.Value) vm.Value {
	switch x := v.(type) {
	case vm.Integer:
		return -x
	case vm.Double:
		return -x
	case *vm.BigInteger:
		return vm.NormalizeInteger(new(big.Int).Neg(x.Big()))
	}
	return v
}

func (p *Parser) literalSymbol(mgen *MethodGen) {
	p.expect(TokenPound)
	var sym *vm.Symbol
	if p.sym.Type == TokenString {
		sym = p.u.SymbolFor(p.stringLiteral())
	} else {
		sym = p.selector()
	}
	p.emitPushConstant(mgen, sym)
}

// literalArray compiles #( ... ) into Array new: n followed by one
// at:put: per element. The size is patched into the literal pool once the
// elements have been counted.
func (p *Parser) literalArray(mgen *MethodGen) {
	p.expect(TokenPound)
	p.expect(TokenNewTerm)

	atPut := p.u.SymbolFor("at:put:")
	p.emitPushGlobal(mgen, p.u.SymbolFor("Array"))
	sizeIndex := p.addLiteral(mgen, p.u.SymbolFor("ArraySizeLiteralPlaceholder"))
	mgen.Code().EmitByte(vm.OpPushConstant, sizeIndex)
	p.emitSend(mgen, p.u.SymbolFor("new:"), false)

	i := 1
	for p.sym.Type != TokenEndTerm {
		if p.sym.Type == TokenNone {
			p.unexpected(TokenEndTerm)
		}
		p.emitPushConstant(mgen, vm.Integer(i))
		p.literal(mgen)
		p.emitSend(mgen, atPut, false)
		i++
	}
	mgen.UpdateLiteral(sizeIndex, vm.Integer(i-1))
	p.expect(TokenEndTerm)
}

func (p *Parser) stringLiteral() string {
	text := p.sym.Text
	p.expect(TokenString)
	return text
}

// ---------------------------------------------------------------------------
// Variable access
// ---------------------------------------------------------------------------

// genPushVariable resolves name as a local or argument of an enclosing
// context, then as a field, and finally as a global.
func (p *Parser) genPushVariable(mgen *MethodGen, name string) {
	if v, ok := mgen.FindVar(name); ok {
		op := vm.OpPushLocal
		if v.IsArgument {
			op = vm.OpPushArgument
		}
		mgen.Code().EmitVariable(op, v.Index, v.Level)
		return
	}
	sym := p.u.SymbolFor(name)
	if index, ok := mgen.FieldIndex(sym); ok {
		mgen.Code().EmitByte(vm.OpPushField, byte(index))
		return
	}
	p.emitPushGlobal(mgen, sym)
}

// genPopVariable stores into a local, argument or field. Globals cannot be
// assigned.
func (p *Parser) genPopVariable(mgen *MethodGen, name string) {
	if v, ok := mgen.FindVar(name); ok {
		op := vm.OpPopLocal
		if v.IsArgument {
			op = vm.OpPopArgument
		}
		mgen.Code().EmitVariable(op, v.Index, v.Level)
		return
	}
	index, ok := mgen.FieldIndex(p.u.SymbolFor(name))
	if !ok {
		p.fail(DefinitionError, "trying to write to field with the name '%s', but field does not seem to exist in class", name)
	}
	mgen.Code().EmitByte(vm.OpPopField, byte(index))
}

// ---------------------------------------------------------------------------
// Emitters
// ---------------------------------------------------------------------------

// addLiteral appends lit without deduplication.
func (p *Parser) addLiteral(mgen *MethodGen, lit vm.Value) byte {
	index, ok := mgen.AddLiteral(lit)
	if !ok {
		p.literalOverflow(mgen)
	}
	return index
}

func (p *Parser) literalIndex(mgen *MethodGen, lit vm.Value) byte {
	index, ok := mgen.AddLiteralIfAbsent(lit)
	if !ok {
		p.literalOverflow(mgen)
	}
	return index
}

func (p *Parser) literalOverflow(mgen *MethodGen) {
	m := mgen
	for m.Outer() != nil {
		m = m.Outer()
	}
	p.fail(DefinitionError, "the method %s>>#%s has more than the supported %d literal values, please split the method",
		p.cgen.Name(), m.Signature(), maxLiterals)
}

func (p *Parser) emitPop(mgen *MethodGen)         { mgen.Code().Emit(vm.OpPop) }
func (p *Parser) emitDup(mgen *MethodGen)         { mgen.Code().Emit(vm.OpDup) }
func (p *Parser) emitReturnLocal(mgen *MethodGen) { mgen.Code().Emit(vm.OpReturnLocal) }

func (p *Parser) emitReturnNonLocal(mgen *MethodGen) {
	mgen.Code().Emit(vm.OpReturnNonLocal)
}

func (p *Parser) emitPushArgument(mgen *MethodGen, index, level byte) {
	mgen.Code().EmitVariable(vm.OpPushArgument, index, level)
}

func (p *Parser) emitPushGlobal(mgen *MethodGen, name *vm.Symbol) {
	mgen.Code().EmitByte(vm.OpPushGlobal, p.literalIndex(mgen, name))
}

func (p *Parser) emitPushConstant(mgen *MethodGen, lit vm.Value) {
	mgen.Code().EmitByte(vm.OpPushConstant, p.literalIndex(mgen, lit))
}

func (p *Parser) emitPushBlock(mgen *MethodGen, block *vm.Method) {
	mgen.Code().EmitByte(vm.OpPushBlock, p.addLiteral(mgen, block))
}

func (p *Parser) emitSend(mgen *MethodGen, sel *vm.Symbol, superSend bool) {
	op := vm.OpSend
	if superSend {
		op = vm.OpSuperSend
	}
	mgen.Code().EmitByte(op, p.literalIndex(mgen, sel))
}
