package evaluator

import (
	"fmt"

	"github.com/lacquerai/minijs/internal/ast"
)

// Run evaluates program against a private copy of ctx and returns the copy.
// ctx itself is never modified. On error the copy is discarded.
func Run(program *ast.Program, ctx Context) (Context, error) {
	out := ctx.Copy()
	if program == nil || program.IsEmpty() {
		return out, nil
	}

	if _, err := Evaluate(program.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate evaluates node against ctx, writing assignments straight into ctx
func Evaluate(node ast.Node, ctx Context) (Value, error) {
	e := &evaluator{ctx: ctx}
	return e.eval(node)
}

type evaluator struct {
	ctx Context
}

func (e *evaluator) eval(node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		if n.Body == nil {
			return NilValue{}, nil
		}
		return e.eval(n.Body)
	case *ast.Literal:
		return literalValue(n), nil
	case *ast.Identifier:
		return e.lookup(n.Name, n.Position)
	case *ast.PropertyAccess:
		return e.getProperty(n)
	case *ast.Assignment:
		return e.assign(n)
	case *ast.PropertyAssignment:
		return e.setProperty(n)
	case *ast.BinaryOp:
		return e.binary(n)
	case *ast.LogicalOp:
		return e.logical(n)
	case *ast.Conditional:
		return e.conditional(n)
	case *ast.Grouping:
		return e.eval(n.Inner)
	case nil:
		return nil, fmt.Errorf("cannot evaluate nil node")
	default:
		return nil, fmt.Errorf("unknown node kind %s", node.Kind())
	}
}

func literalValue(n *ast.Literal) Value {
	switch n.Type {
	case ast.LiteralNumber:
		return IntNumber(n.Number)
	case ast.LiteralBool:
		return BoolValue{Val: n.Bool}
	default:
		return StringValue{Val: n.Str}
	}
}

func (e *evaluator) lookup(name string, pos ast.Position) (Value, error) {
	raw, ok := e.ctx[name]
	if !ok {
		return nil, &UndefinedNameError{Name: name, Position: pos}
	}
	val, err := GoToValue(raw)
	if err != nil {
		return nil, &TypeError{Op: name, Position: pos, Message: fmt.Sprintf("%s: %v", name, err)}
	}
	return val, nil
}

// mapping returns the nested map bound to target. The map is the one held by
// the context, so writes through it are visible in the context.
func (e *evaluator) mapping(target, property string, pos ast.Position) (map[string]interface{}, error) {
	raw, ok := e.ctx[target]
	if !ok {
		return nil, &UndefinedPropertyError{
			Target:   target,
			Property: property,
			Position: pos,
			Reason:   fmt.Sprintf("%s is not defined", target),
		}
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &UndefinedPropertyError{
			Target:   target,
			Property: property,
			Position: pos,
			Reason:   fmt.Sprintf("%s is not a mapping", target),
		}
	}
	return m, nil
}

func (e *evaluator) getProperty(n *ast.PropertyAccess) (Value, error) {
	m, err := e.mapping(n.Target, n.Property, n.Position)
	if err != nil {
		return nil, err
	}
	raw, ok := m[n.Property]
	if !ok {
		return nil, &UndefinedPropertyError{
			Target:   n.Target,
			Property: n.Property,
			Position: n.Position,
			Reason:   "property is not defined",
		}
	}
	val, err := GoToValue(raw)
	if err != nil {
		return nil, &TypeError{Op: ".", Position: n.Position, Message: fmt.Sprintf("%s.%s: %v", n.Target, n.Property, err)}
	}
	return val, nil
}

func storable(v Value, pos ast.Position, target string) error {
	if v.Type() == TypeNil {
		return &TypeError{
			Op:       "=",
			Position: pos,
			Message:  fmt.Sprintf("cannot assign to %s: expression produced no value", target),
		}
	}
	return nil
}

func (e *evaluator) assign(n *ast.Assignment) (Value, error) {
	val, err := e.eval(n.Value)
	if err != nil {
		return nil, err
	}
	if !e.ctx.Has(n.Target) {
		return nil, &UndefinedNameError{Name: n.Target, Position: n.Position, Write: true}
	}
	if err := storable(val, n.Position, n.Target); err != nil {
		return nil, err
	}
	e.ctx[n.Target] = val.GoValue()
	return val, nil
}

func (e *evaluator) setProperty(n *ast.PropertyAssignment) (Value, error) {
	val, err := e.eval(n.Value)
	if err != nil {
		return nil, err
	}
	m, err := e.mapping(n.Target, n.Property, n.Position)
	if err != nil {
		return nil, err
	}
	if err := storable(val, n.Position, n.Target+"."+n.Property); err != nil {
		return nil, err
	}
	m[n.Property] = val.GoValue()
	return val, nil
}

func (e *evaluator) binary(n *ast.BinaryOp) (Value, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}

	typeErr := &TypeError{Op: string(n.Op), Left: left.Type(), Right: right.Type(), Position: n.Position}

	switch n.Op {
	case ast.OpEq:
		return BoolValue{Val: left.Equals(right)}, nil
	case ast.OpGt:
		if ls, ok := left.(StringValue); ok {
			if rs, ok := right.(StringValue); ok {
				return BoolValue{Val: ls.Val > rs.Val}, nil
			}
			return nil, typeErr
		}
		l, lok := toNumber(left)
		r, rok := toNumber(right)
		if !lok || !rok {
			return nil, typeErr
		}
		return BoolValue{Val: l.Greater(r)}, nil
	case ast.OpAdd, ast.OpSub:
		l, lok := toNumber(left)
		r, rok := toNumber(right)
		if !lok || !rok {
			return nil, typeErr
		}
		if n.Op == ast.OpAdd {
			return l.Add(r), nil
		}
		return l.Sub(r), nil
	default:
		return nil, fmt.Errorf("unknown operator: %s", n.Op)
	}
}

// logical evaluates both operands, left first, and returns the operand that
// decides the result.
func (e *evaluator) logical(n *ast.LogicalOp) (Value, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.OpAnd:
		if !Truthy(left) {
			return left, nil
		}
		return right, nil
	case ast.OpOr:
		if Truthy(left) {
			return left, nil
		}
		return right, nil
	default:
		return nil, fmt.Errorf("unknown operator: %s", n.Op)
	}
}

func (e *evaluator) conditional(n *ast.Conditional) (Value, error) {
	test, err := e.eval(n.Test)
	if err != nil {
		return nil, err
	}

	if Truthy(test) {
		return e.eval(n.Then)
	}
	if n.Else != nil {
		return e.eval(n.Else)
	}
	return NilValue{}, nil
}
