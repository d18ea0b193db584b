package sema

import "github.com/dekarrin/vsopc/internal/vsop/ast"

// letBinding is one entry of the lexical let-binding stack threaded through
// P4. Unlike a single mutable "current let binding" slot, a stack lets
// nested lets shadow correctly and restores the enclosing binding on exit.
type letBinding struct {
	name string
	typ  ast.StaticType
}

// env is the immutable ambient state threaded through the P4 recursive
// walk: the enclosing class and method, the stack of active let bindings
// (innermost last), and whether the walk is currently inside a field
// initializer (where self and fields may not be referenced).
type env struct {
	class       string
	method      string
	lets        []letBinding
	inFieldInit bool
}

func (e env) pushLet(name string, typ ast.StaticType) env {
	next := env{class: e.class, method: e.method, inFieldInit: e.inFieldInit}
	next.lets = append(append([]letBinding(nil), e.lets...), letBinding{name: name, typ: typ})
	return next
}

func (e env) withFieldInit() env {
	next := e
	next.inFieldInit = true
	next.lets = nil
	return next
}

// checker holds all tables produced by P1-P3 and performs P4's expression
// typing over them.
type checker struct {
	classes     ClassTable
	methods     MethodTable
	fields      FieldTable
	formals     FormalTable
	resolvedRet map[string]map[string]ast.StaticType
}

// typecheck runs P4 over every class's field initializers and method
// bodies, writing a StaticType onto every ast.Expr node it visits.
func typecheck(classes ClassTable, methods MethodTable, fields FieldTable, formals FormalTable, resolvedRet map[string]map[string]ast.StaticType, prog *ast.Program) error {
	c := &checker{classes: classes, methods: methods, fields: fields, formals: formals, resolvedRet: resolvedRet}

	for _, cls := range prog.Classes {
		for _, f := range cls.Fields {
			if f.Init == nil {
				continue
			}
			e := env{class: cls.Name}.withFieldInit()
			if err := c.typeExpr(e, f.Init); err != nil {
				return err
			}
			declType, err := resolveTypeRef(classes, f.Pos, f.Type, cls.Name)
			if err != nil {
				return err
			}
			if !conforms(classes, f.Init.StaticType, declType) {
				return newErr(f.Pos, TypeMismatch, "field %s initializer has type %s, which does not conform to declared type %s", f.Name, f.Init.StaticType.Name, declType.Name)
			}
		}

		for _, m := range cls.Methods {
			if len(m.Body) == 0 && cls.Name == ObjectClassName {
				continue // built-in methods have no body to check
			}
			e := env{class: cls.Name, method: m.Name}
			bodyType, err := c.typeBlock(e, m.Body)
			if err != nil {
				return err
			}
			retType := resolvedRet[cls.Name][m.Name]
			if !conforms(classes, bodyType, retType) {
				return newErr(m.Pos, TypeMismatch, "body of method %s in class %s has type %s, which does not conform to declared return type %s", m.Name, cls.Name, bodyType.Name, retType.Name)
			}
		}
	}

	return nil
}

// typeBlock types each expression of a block in order, returning the type
// of the last one (unit for an empty block).
func (c *checker) typeBlock(e env, block []ast.Expr) (ast.StaticType, error) {
	if len(block) == 0 {
		return ast.TypeUnit, nil
	}
	for i := range block {
		if err := c.typeExpr(e, &block[i]); err != nil {
			return ast.StaticType{}, err
		}
	}
	return block[len(block)-1].StaticType, nil
}

// typeExpr infers and writes the StaticType of node, recursing as needed.
func (c *checker) typeExpr(e env, node *ast.Expr) error {
	switch node.Kind {
	case ast.ExprUnit:
		node.StaticType = ast.TypeUnit

	case ast.ExprInt:
		node.StaticType = ast.TypeInt32

	case ast.ExprString:
		node.StaticType = ast.TypeString

	case ast.ExprBool:
		node.StaticType = ast.TypeBool

	case ast.ExprParen:
		if err := c.typeExpr(e, node.Inner); err != nil {
			return err
		}
		node.StaticType = node.Inner.StaticType

	case ast.ExprBlock:
		t, err := c.typeBlock(e, node.Block)
		if err != nil {
			return err
		}
		node.StaticType = t

	case ast.ExprUnary:
		if err := c.typeExpr(e, node.Operand); err != nil {
			return err
		}
		switch node.UnOp {
		case ast.OpNeg:
			if node.Operand.StaticType.Kind != ast.INT32 {
				return newErr(node.Pos, TypeMismatch, "operand of unary - must be int32, found %s", node.Operand.StaticType.Name)
			}
			node.StaticType = ast.TypeInt32
		case ast.OpNot:
			if node.Operand.StaticType.Kind != ast.BOOL {
				return newErr(node.Pos, TypeMismatch, "operand of not must be bool, found %s", node.Operand.StaticType.Name)
			}
			node.StaticType = ast.TypeBool
		case ast.OpIsnull:
			if node.Operand.StaticType.Kind != ast.CLASS {
				return newErr(node.Pos, TypeMismatch, "operand of isnull must be a class type, found %s", node.Operand.StaticType.Name)
			}
			node.StaticType = ast.TypeBool
		}

	case ast.ExprBinary:
		if err := c.typeExpr(e, node.Left); err != nil {
			return err
		}
		if err := c.typeExpr(e, node.Right); err != nil {
			return err
		}
		lt, rt := node.Left.StaticType, node.Right.StaticType
		switch node.BinOp {
		case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpPow:
			if lt.Kind != ast.INT32 || rt.Kind != ast.INT32 {
				return newErr(node.Pos, TypeMismatch, "operands of %s must both be int32, found %s and %s", node.BinOp.String(), lt.Name, rt.Name)
			}
			node.StaticType = ast.TypeInt32
		case ast.OpLt, ast.OpLe:
			if lt.Kind != ast.INT32 || rt.Kind != ast.INT32 {
				return newErr(node.Pos, TypeMismatch, "operands of %s must both be int32, found %s and %s", node.BinOp.String(), lt.Name, rt.Name)
			}
			node.StaticType = ast.TypeBool
		case ast.OpAnd:
			if lt.Kind != ast.BOOL || rt.Kind != ast.BOOL {
				return newErr(node.Pos, TypeMismatch, "operands of and must both be bool, found %s and %s", lt.Name, rt.Name)
			}
			node.StaticType = ast.TypeBool
		case ast.OpEq:
			bothPrimitiveSameKind := lt.Kind != ast.CLASS && rt.Kind != ast.CLASS && lt.Kind == rt.Kind
			bothClass := lt.Kind == ast.CLASS && rt.Kind == ast.CLASS
			if !bothPrimitiveSameKind && !bothClass {
				return newErr(node.Pos, TypeMismatch, "operands of = must be the same primitive kind or both class types, found %s and %s", lt.Name, rt.Name)
			}
			node.StaticType = ast.TypeBool
		}

	case ast.ExprNew:
		if _, ok := c.classes[node.NewClass]; !ok {
			return newErr(node.Pos, UndefinedType, "new refers to undefined class %s", node.NewClass)
		}
		node.StaticType = ast.ClassType(node.NewClass)

	case ast.ExprWhile:
		if err := c.typeExpr(e, node.Cond); err != nil {
			return err
		}
		if node.Cond.StaticType.Kind != ast.BOOL {
			return newErr(node.Pos, TypeMismatch, "while condition must be bool, found %s", node.Cond.StaticType.Name)
		}
		if err := c.typeExpr(e, node.Then); err != nil {
			return err
		}
		node.StaticType = ast.TypeUnit

	case ast.ExprIf:
		if err := c.typeExpr(e, node.Cond); err != nil {
			return err
		}
		if node.Cond.StaticType.Kind != ast.BOOL {
			return newErr(node.Pos, TypeMismatch, "if condition must be bool, found %s", node.Cond.StaticType.Name)
		}
		if err := c.typeExpr(e, node.Then); err != nil {
			return err
		}
		if node.Else == nil {
			node.StaticType = ast.TypeUnit
			return nil
		}
		if err := c.typeExpr(e, node.Else); err != nil {
			return err
		}
		joined, err := c.joinBranches(node.Pos, node.Then.StaticType, node.Else.StaticType)
		if err != nil {
			return err
		}
		node.StaticType = joined

	case ast.ExprLet:
		declType, err := resolveTypeRef(c.classes, node.Pos, node.LetType, e.class)
		if err != nil {
			return err
		}
		if node.LetInit != nil {
			if err := c.typeExpr(e, node.LetInit); err != nil {
				return err
			}
			if !conforms(c.classes, node.LetInit.StaticType, declType) {
				return newErr(node.Pos, TypeMismatch, "let %s initializer has type %s, which does not conform to declared type %s", node.LetName, node.LetInit.StaticType.Name, declType.Name)
			}
		}
		inner := e.pushLet(node.LetName, declType)
		if err := c.typeExpr(inner, node.LetBody); err != nil {
			return err
		}
		node.StaticType = node.LetBody.StaticType

	case ast.ExprAssign:
		targetType, err := c.resolveVar(e, node.Pos, node.AssignName)
		if err != nil {
			return err
		}
		if err := c.typeExpr(e, node.AssignExpr); err != nil {
			return err
		}
		if !conforms(c.classes, node.AssignExpr.StaticType, targetType) {
			return newErr(node.Pos, TypeMismatch, "assignment to %s has type %s, which does not conform to its type %s", node.AssignName, node.AssignExpr.StaticType.Name, targetType.Name)
		}
		node.StaticType = node.AssignExpr.StaticType

	case ast.ExprVar:
		t, err := c.resolveVar(e, node.Pos, node.VarName)
		if err != nil {
			return err
		}
		node.StaticType = t

	case ast.ExprCall:
		if err := c.typeExpr(e, node.Receiver); err != nil {
			return err
		}
		if node.Receiver.StaticType.Kind != ast.CLASS {
			return newErr(node.Pos, CallResolution, "cannot call method %s on non-class type %s", node.MethodName, node.Receiver.StaticType.Name)
		}
		recvClass := node.Receiver.StaticType.Name

		definingClass, ok := c.classes.LookupMethod(c.methods, recvClass, node.MethodName)
		if !ok {
			return newErr(node.Pos, CallResolution, "class %s has no method %s", recvClass, node.MethodName)
		}

		wantFormals := c.formals[definingClass][node.MethodName]
		if len(wantFormals) != len(node.Args) {
			return newErr(node.Pos, CallResolution, "method %s of class %s expects %d argument(s), found %d", node.MethodName, recvClass, len(wantFormals), len(node.Args))
		}

		for i := range node.Args {
			if err := c.typeExpr(e, &node.Args[i]); err != nil {
				return err
			}
			argFormalType, err := resolveTypeRef(c.classes, node.Pos, wantFormals[i].Type, definingClass)
			if err != nil {
				return err
			}
			if !conforms(c.classes, node.Args[i].StaticType, argFormalType) {
				return newErr(node.Pos, CallResolution, "argument %d to %s does not conform: expected %s, found %s", i+1, node.MethodName, argFormalType.Name, node.Args[i].StaticType.Name)
			}
		}

		node.StaticType = c.resolvedRet[definingClass][node.MethodName]
	}

	return nil
}

// joinBranches computes the if-then-else result type: unit if
// either branch is unit, the shared type if both branches agree exactly,
// the least common ancestor if both are class types, else a branch
// mismatch error.
func (c *checker) joinBranches(pos ast.Pos, then, els ast.StaticType) (ast.StaticType, error) {
	if then.Kind == ast.UNIT || els.Kind == ast.UNIT {
		return ast.TypeUnit, nil
	}
	if then.Equal(els) {
		return then, nil
	}
	if then.Kind == ast.CLASS && els.Kind == ast.CLASS {
		return ast.ClassType(c.classes.LCA(then.Name, els.Name)), nil
	}
	return ast.StaticType{}, newErr(pos, TypeMismatch, "if branches have incompatible types %s and %s", then.Name, els.Name)
}

// resolveVar resolves an identifier reference, in order:
// self, the active let-binding stack (innermost first), a formal of the
// enclosing method, then a field of the enclosing class or an ancestor.
func (c *checker) resolveVar(e env, pos ast.Pos, name string) (ast.StaticType, error) {
	if name == "self" {
		if e.inFieldInit {
			return ast.StaticType{}, newErr(pos, SelfInFieldInit, "self may not be used in a field initializer")
		}
		return ast.ClassType(e.class), nil
	}

	for i := len(e.lets) - 1; i >= 0; i-- {
		if e.lets[i].name == name {
			return e.lets[i].typ, nil
		}
	}

	for _, f := range c.formals[e.class][e.method] {
		if f.Name == name {
			return resolveTypeRef(c.classes, pos, f.Type, e.class)
		}
	}

	if definingClass, ok := c.classes.LookupField(c.fields, e.class, name); ok {
		if e.inFieldInit {
			return ast.StaticType{}, newErr(pos, FieldInFieldInit, "field %s may not be used in a field initializer", name)
		}
		return resolveTypeRef(c.classes, pos, c.fields[definingClass][name], definingClass)
	}

	return ast.StaticType{}, newErr(pos, UnboundVariable, "unbound variable %s", name)
}
