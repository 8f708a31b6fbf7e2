// Copyright © 2024 The pyscope authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
)

func (b *Binder) pushScope(kind ScopeKind, parent ScopeID, node ast.ScopeNode) *Scope {
	s := b.newScope(kind, parent, node)
	b.state[s.ID] = &scopeState{
		used:     make(map[string]*ast.Name),
		iterVars: make(map[string]bool),
		free:     make(map[VarID]bool),
		cell:     make(map[VarID]bool),
		globals:  make(map[VarID]bool),
	}
	b.scopeByNode[node] = s.ID
	return s
}

func (b *Binder) root() *Scope {
	return b.scopes[1]
}

// define ensures that scope sc owns a variable for name and records site as
// a binding of it when bound is set.
func (b *Binder) define(sc ScopeID, name string, site *ast.Name, bound bool) *Variable {
	s := b.scope(sc)
	v := b.lookup(s, name)
	if v == nil {
		kind := VarLocal
		if s.Kind == ScopeModule {
			kind = VarGlobal
		}
		v = b.newVar(s, name, kind)
	}
	if bound {
		markBound(v, site)
		if v.Kind == VarGlobal && s.Kind != ScopeModule {
			markBound(b.moduleVar(name), site)
		}
	}
	return v
}

func markBound(v *Variable, site *ast.Name) {
	v.Bound = true
	v.Inferred = false
	if v.Def == nil {
		v.Def = site
	}
}

// moduleVar returns the module's variable for name, creating an unbound
// global when there is none.
func (b *Binder) moduleVar(name string) *Variable {
	root := b.root()
	if v := b.lookup(root, name); v != nil {
		return v
	}
	return b.newVar(root, name, VarGlobal)
}

func (b *Binder) implicit(s *Scope, name string) {
	v := b.newVar(s, name, VarLocal)
	v.Implicit = true
	v.Bound = true
}

func (b *Binder) ref(sc ScopeID, n *ast.Name, access Access) *Reference {
	r := b.newRef(sc, n.ID, n, access)
	b.refByName[n] = r.ID
	b.enclosing[n] = sc
	if st := b.state[sc]; access.Has(AccessRead) && st.used[n.ID] == nil {
		st.used[n.ID] = n
	}
	return r
}

func (b *Binder) collectStmts(body []ast.Stmt, sc ScopeID) {
	for _, s := range body {
		b.collectStmt(s, sc)
	}
}

func (b *Binder) collectExprs(es []ast.Expr, sc ScopeID) {
	for _, e := range es {
		b.collectExpr(e, sc)
	}
}

func (b *Binder) collectStmt(s ast.Stmt, sc ScopeID) {
	if s == nil {
		return
	}
	b.enclosing[s] = sc
	switch s := s.(type) {
	case *ast.FunctionDef:
		b.collectFunction(s, sc)
	case *ast.ClassDef:
		b.collectClass(s, sc)
	case *ast.Return:
		b.collectExpr(s.Value, sc)
	case *ast.Delete:
		for _, t := range s.Targets {
			b.deleteTarget(t, sc)
		}
	case *ast.Assign:
		for _, t := range s.Targets {
			b.bindTarget(t, sc)
		}
		b.collectExpr(s.Value, sc)
	case *ast.AugAssign:
		if n, ok := s.Target.(*ast.Name); ok {
			b.enclosing[n] = sc
			b.define(sc, n.ID, n, true)
			b.ref(sc, n, AccessRead|AccessWrite)
		} else {
			b.collectExpr(s.Target, sc)
		}
		b.collectExpr(s.Value, sc)
	case *ast.AnnAssign:
		if n, ok := s.Target.(*ast.Name); ok {
			b.enclosing[n] = sc
			b.define(sc, n.ID, n, s.Value != nil)
			access := AccessWrite
			if s.Value == nil {
				access = AccessDeclare
			}
			b.ref(sc, n, access)
		} else {
			b.collectExpr(s.Target, sc)
		}
		b.collectExpr(s.Annotation, sc)
		b.collectExpr(s.Value, sc)
	case *ast.For:
		b.bindTarget(s.Target, sc)
		b.collectExpr(s.Iter, sc)
		b.collectStmts(s.Body, sc)
		b.collectStmts(s.Else, sc)
	case *ast.While:
		b.collectExpr(s.Test, sc)
		b.collectStmts(s.Body, sc)
		b.collectStmts(s.Else, sc)
	case *ast.If:
		b.collectExpr(s.Test, sc)
		b.collectStmts(s.Body, sc)
		b.collectStmts(s.Else, sc)
	case *ast.With:
		for _, item := range s.Items {
			b.enclosing[item] = sc
			b.collectExpr(item.Context, sc)
			if item.Target != nil {
				b.bindTarget(item.Target, sc)
			}
		}
		b.collectStmts(s.Body, sc)
	case *ast.Try:
		b.collectStmts(s.Body, sc)
		for _, h := range s.Handlers {
			b.enclosing[h] = sc
			b.collectExpr(h.Type, sc)
			if h.Name != nil {
				b.bindTarget(h.Name, sc)
			}
			b.collectStmts(h.Body, sc)
		}
		b.collectStmts(s.Else, sc)
		b.collectStmts(s.Finally, sc)
	case *ast.Raise:
		b.collectExpr(s.Exc, sc)
		b.collectExpr(s.Cause, sc)
		b.collectExprs(s.Extra, sc)
	case *ast.Assert:
		b.collectExpr(s.Test, sc)
		b.collectExpr(s.Msg, sc)
	case *ast.Import:
		b.bindAliases(s.Names, sc)
	case *ast.ImportFrom:
		if s.Star {
			scope := b.scope(sc)
			scope.ContainsImportStar = true
			scope.NeedsDynamicLocals = true
			scope.HasLateBoundAssignment = true
			if st := b.state[sc]; st.importStar == nil {
				st.importStar = s
			}
			return
		}
		b.bindAliases(s.Names, sc)
	case *ast.Global:
		b.collectGlobal(s, sc)
	case *ast.Nonlocal:
		b.collectNonlocal(s, sc)
	case *ast.Exec:
		b.collectExpr(s.Body, sc)
		b.collectExpr(s.Globals, sc)
		b.collectExpr(s.Locals, sc)
		b.markDynamicExec(sc, s.Globals != nil, s.Locals != nil)
		if st := b.state[sc]; s.Globals == nil && s.Locals == nil && st.dynamicEval == nil {
			st.dynamicEval = s
		}
	case *ast.Print:
		b.collectExpr(s.Dest, sc)
		b.collectExprs(s.Values, sc)
	case *ast.ExprStmt:
		b.collectExpr(s.Value, sc)
	case *ast.Pass, *ast.Break, *ast.Continue, *ast.BadStmt:
	default:
		panic(fmt.Sprintf("analysis: unexpected statement %T", s))
	}
}

func (b *Binder) bindAliases(names []*ast.Alias, sc ScopeID) {
	for _, a := range names {
		b.enclosing[a] = sc
		if a.Target == nil {
			continue
		}
		b.define(sc, a.Target.ID, a.Target, true)
		b.ref(sc, a.Target, AccessWrite)
	}
}

// bindTarget defines the names bound by an assignment target.  Attribute
// and subscript targets only load their operands.
func (b *Binder) bindTarget(e ast.Expr, sc ScopeID) {
	if e == nil {
		return
	}
	b.enclosing[e] = sc
	switch t := e.(type) {
	case *ast.Name:
		b.define(sc, t.ID, t, true)
		b.ref(sc, t, AccessWrite)
	case *ast.Tuple:
		for _, elt := range t.Elts {
			b.bindTarget(elt, sc)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			b.bindTarget(elt, sc)
		}
	case *ast.Starred:
		b.bindTarget(t.Value, sc)
	default:
		b.collectExpr(e, sc)
	}
}

func (b *Binder) deleteTarget(e ast.Expr, sc ScopeID) {
	if e == nil {
		return
	}
	b.enclosing[e] = sc
	switch t := e.(type) {
	case *ast.Name:
		v := b.define(sc, t.ID, nil, false)
		v.Deleted = true
		if v.DeletedAt == nil {
			v.DeletedAt = t
		}
		b.ref(sc, t, AccessDelete)
	case *ast.Tuple:
		for _, elt := range t.Elts {
			b.deleteTarget(elt, sc)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			b.deleteTarget(elt, sc)
		}
	default:
		b.collectExpr(e, sc)
	}
}

func (b *Binder) collectFunction(fn *ast.FunctionDef, sc ScopeID) {
	b.collectExprs(fn.Decorators, sc)
	b.enclosing[fn.Name] = sc
	b.define(sc, fn.Name.ID, fn.Name, true)
	b.ref(sc, fn.Name, AccessWrite)
	b.collectParamExprs(fn.Params, sc)
	b.collectExpr(fn.Returns, sc)

	fs := b.pushScope(ScopeFunction, sc, fn)
	b.bindParams(fn.Params, fs)
	b.collectStmts(fn.Body, fs.ID)
}

// collectParamExprs walks defaults and annotations, which are evaluated in
// the scope containing the definition.
func (b *Binder) collectParamExprs(params []*ast.Param, sc ScopeID) {
	for _, p := range params {
		b.collectExpr(p.Annotation, sc)
		b.collectExpr(p.Default, sc)
	}
}

func (b *Binder) bindParams(params []*ast.Param, fs *Scope) {
	for _, p := range params {
		b.enclosing[p] = fs.ID
		if p.Name != nil {
			b.bindParam(p.Name, fs)
		}
		if p.Target != nil {
			b.bindSublist(p.Target, fs)
		}
	}
}

func (b *Binder) bindParam(n *ast.Name, fs *Scope) {
	v := b.lookup(fs, n.ID)
	if v == nil {
		v = b.newVar(fs, n.ID, VarParameter)
	}
	markBound(v, n)
	b.ref(fs.ID, n, AccessWrite)
}

// bindSublist binds every name unpacked by a Python 2 tuple parameter.
func (b *Binder) bindSublist(target ast.Expr, fs *Scope) {
	b.enclosing[target] = fs.ID
	switch t := target.(type) {
	case *ast.Name:
		b.bindParam(t, fs)
	case *ast.Tuple:
		for _, e := range t.Elts {
			b.bindSublist(e, fs)
		}
	}
}

func (b *Binder) collectClass(cd *ast.ClassDef, sc ScopeID) {
	b.collectExprs(cd.Decorators, sc)
	b.enclosing[cd.Name] = sc
	b.define(sc, cd.Name.ID, cd.Name, true)
	b.ref(sc, cd.Name, AccessWrite)
	b.collectExprs(cd.Bases, sc)
	for _, kw := range cd.Keywords {
		b.enclosing[kw] = sc
		b.collectExpr(kw.Value, sc)
	}

	cs := b.pushScope(ScopeClass, sc, cd)
	b.implicit(cs, "__module__")
	if b.cfg.Version.HasQualname() {
		b.implicit(cs, "__qualname__")
	}
	if ast.Docstring(cd.Body) != nil {
		b.implicit(cs, "__doc__")
	}
	if b.cfg.Version.HasClassCell() {
		b.implicit(cs, "__class__")
	}
	b.collectStmts(cd.Body, cs.ID)
}

func (b *Binder) collectGlobal(g *ast.Global, sc ScopeID) {
	s := b.scope(sc)
	st := b.state[sc]
	for _, n := range g.Names {
		v := b.lookup(s, n.ID)
		if v != nil && s.Kind != ScopeModule {
			switch v.Kind {
			case VarLocal:
				b.related(diagnostic.SeverityWarning, CodeGlobalAfterAssign, n, b.assignedHere(v),
					"name '%s' is assigned to before global declaration", n.ID)
				v.Kind = VarGlobal
				if v.Bound {
					markBound(b.moduleVar(n.ID), v.Def)
				}
			case VarParameter:
				b.errorf(CodeGlobalParam, n, "name '%s' is parameter and global", n.ID)
			case VarNonlocal:
				b.errorf(CodeNonlocalGlobal, n, "name '%s' is nonlocal and global", n.ID)
			}
		}
		if use := st.used[n.ID]; use != nil {
			b.related(diagnostic.SeverityWarning, CodeGlobalAfterUse, n,
				[]diagnostic.Span{b.label(use, "used here")},
				"name '%s' is used prior to global declaration", n.ID)
		}
		b.moduleVar(n.ID)
		if v == nil && s.Kind != ScopeModule {
			b.newVar(s, n.ID, VarGlobal)
		}
		b.ref(sc, n, AccessDeclare)
	}
}

func (b *Binder) collectNonlocal(nl *ast.Nonlocal, sc ScopeID) {
	s := b.scope(sc)
	st := b.state[sc]
	switch {
	case !b.cfg.Version.HasNonlocal():
		b.errorf(CodeNonlocalUnsupported, nl, "nonlocal declaration is not supported in Python %s", b.cfg.Version)
	case s.Kind == ScopeModule:
		b.errorf(CodeNonlocalModule, nl, "nonlocal declaration not allowed at module level")
	default:
		for _, n := range nl.Names {
			v := b.lookup(s, n.ID)
			if v != nil {
				switch v.Kind {
				case VarLocal:
					b.related(diagnostic.SeverityWarning, CodeNonlocalAfterAssign, n, b.assignedHere(v),
						"name '%s' is assigned to before nonlocal declaration", n.ID)
					v.Kind = VarNonlocal
					st.nonlocals = append(st.nonlocals, n)
				case VarParameter:
					b.errorf(CodeNonlocalParam, n, "name '%s' is parameter and nonlocal", n.ID)
				case VarGlobal:
					b.errorf(CodeNonlocalGlobal, n, "name '%s' is nonlocal and global", n.ID)
				}
			}
			if use := st.used[n.ID]; use != nil {
				b.related(diagnostic.SeverityWarning, CodeNonlocalAfterUse, n,
					[]diagnostic.Span{b.label(use, "used here")},
					"name '%s' is used prior to nonlocal declaration", n.ID)
			}
			if v == nil {
				b.newVar(s, n.ID, VarNonlocal)
				st.nonlocals = append(st.nonlocals, n)
			}
		}
	}
	for _, n := range nl.Names {
		b.ref(sc, n, AccessDeclare)
	}
}

// assignedHere labels the first binding of v, if it has one.
func (b *Binder) assignedHere(v *Variable) []diagnostic.Span {
	if v.Def == nil {
		return nil
	}
	return []diagnostic.Span{b.label(v.Def, "assigned here")}
}

// markDynamicExec records an exec or eval whose namespaces may be the
// scope's own.
func (b *Binder) markDynamicExec(sc ScopeID, hasGlobals, hasLocals bool) {
	s := b.scope(sc)
	if !hasGlobals && !hasLocals {
		s.ContainsUnqualifiedDynamicEval = true
	}
	if !hasLocals {
		s.HasLateBoundAssignment = true
	}
}

func (b *Binder) collectExpr(e ast.Expr, sc ScopeID) {
	if e == nil {
		return
	}
	b.enclosing[e] = sc
	switch e := e.(type) {
	case *ast.Name:
		switch e.Ctx {
		case ast.Store:
			b.define(sc, e.ID, e, true)
			b.ref(sc, e, AccessWrite)
		case ast.Del:
			b.deleteTarget(e, sc)
		default:
			b.ref(sc, e, AccessRead)
			if e.ID == "super" {
				b.classCellRef(sc)
			}
		}
	case *ast.Constant, *ast.BadExpr:
	case *ast.Attribute:
		b.collectExpr(e.Value, sc)
	case *ast.Subscript:
		b.collectExpr(e.Value, sc)
		b.collectExpr(e.Index, sc)
	case *ast.Slice:
		b.collectExpr(e.Lower, sc)
		b.collectExpr(e.Upper, sc)
		b.collectExpr(e.Step, sc)
	case *ast.Call:
		b.collectExpr(e.Func, sc)
		b.collectExprs(e.Args, sc)
		for _, kw := range e.Keywords {
			b.enclosing[kw] = sc
			b.collectExpr(kw.Value, sc)
		}
		b.inspectCall(e, sc)
	case *ast.BinOp:
		b.collectExpr(e.Left, sc)
		b.collectExpr(e.Right, sc)
	case *ast.UnaryOp:
		b.collectExpr(e.Operand, sc)
	case *ast.BoolOp:
		b.collectExprs(e.Values, sc)
	case *ast.Compare:
		b.collectExpr(e.Left, sc)
		b.collectExprs(e.Comparators, sc)
	case *ast.IfExp:
		b.collectExpr(e.Test, sc)
		b.collectExpr(e.Body, sc)
		b.collectExpr(e.Else, sc)
	case *ast.Tuple:
		b.collectExprs(e.Elts, sc)
	case *ast.List:
		b.collectExprs(e.Elts, sc)
	case *ast.Set:
		b.collectExprs(e.Elts, sc)
	case *ast.Dict:
		for i := range e.Values {
			if i < len(e.Keys) {
				b.collectExpr(e.Keys[i], sc)
			}
			b.collectExpr(e.Values[i], sc)
		}
	case *ast.Starred:
		b.collectExpr(e.Value, sc)
	case *ast.Lambda:
		b.collectLambda(e, sc)
	case *ast.Comprehension:
		b.collectComprehension(e, sc)
	case *ast.NamedExpr:
		b.collectNamedExpr(e, sc)
	case *ast.Await:
		b.collectExpr(e.Value, sc)
	case *ast.Yield:
		b.collectExpr(e.Value, sc)
	case *ast.YieldFrom:
		b.collectExpr(e.Value, sc)
	default:
		panic(fmt.Sprintf("analysis: unexpected expression %T", e))
	}
}

// classCellRef records the implicit use of __class__ made by a
// zero-argument super() call inside a method.
func (b *Binder) classCellRef(sc ScopeID) {
	if !b.cfg.Version.HasClassCell() {
		return
	}
	s := b.scope(sc)
	st := b.state[sc]
	if !s.Kind.functionLike() || st.classCell {
		return
	}
	for id := s.Parent; id.IsValid(); id = b.scope(id).Parent {
		if b.scope(id).Kind == ScopeClass {
			st.classCell = true
			b.newRef(sc, "__class__", nil, AccessRead)
			return
		}
	}
}

// inspectCall flags calls that read or write the calling scope's
// namespace by name.
func (b *Binder) inspectCall(call *ast.Call, sc ScopeID) {
	fn, ok := call.Func.(*ast.Name)
	if !ok {
		return
	}
	s := b.scope(sc)
	switch fn.ID {
	case "locals", "vars", "dir":
		if onlySplatArgs(call) {
			s.NeedsDynamicLocals = true
		}
	case "execfile":
		s.NeedsDynamicLocals = true
	case "eval", "exec":
		s.NeedsDynamicLocals = true
		globals, locals := callNamespaces(call)
		b.markDynamicExec(sc, globals, locals)
	}
}

func onlySplatArgs(call *ast.Call) bool {
	for _, a := range call.Args {
		if _, ok := a.(*ast.Starred); !ok {
			return false
		}
	}
	for _, kw := range call.Keywords {
		if kw.Arg != "" {
			return false
		}
	}
	return true
}

// callNamespaces reports whether an exec or eval call passes explicit
// globals and locals.  Splatted arguments may supply either.
func callNamespaces(call *ast.Call) (globals, locals bool) {
	for i, a := range call.Args {
		if _, ok := a.(*ast.Starred); ok {
			return true, true
		}
		switch i {
		case 1:
			globals = true
		case 2:
			locals = true
		}
	}
	for _, kw := range call.Keywords {
		switch kw.Arg {
		case "":
			return true, true
		case "globals":
			globals = true
		case "locals":
			locals = true
		}
	}
	return globals, locals
}

func (b *Binder) collectLambda(l *ast.Lambda, sc ScopeID) {
	b.collectParamExprs(l.Params, sc)
	ls := b.pushScope(ScopeLambda, sc, l)
	b.bindParams(l.Params, ls)

	depth := b.iterDepth
	b.iterDepth = 0
	b.collectExpr(l.Body, ls.ID)
	b.iterDepth = depth
}

// collectComprehension walks the outermost iterable in the enclosing scope
// and everything else in the comprehension's own scope.  List
// comprehensions share the enclosing scope before 3.0.
func (b *Binder) collectComprehension(c *ast.Comprehension, sc ScopeID) {
	if len(c.Generators) == 0 {
		b.collectExpr(c.Elt, sc)
		b.collectExpr(c.Value, sc)
		return
	}
	b.collectExpr(c.Generators[0].Iter, sc)

	cs := sc
	if c.Kind != ast.ListComp || b.cfg.Version.ListComprehensionScope() {
		cs = b.pushScope(ScopeComprehension, sc, c).ID
	}
	depth := b.iterDepth
	b.iterDepth = 0
	for _, g := range c.Generators {
		b.enclosing[g] = cs
		b.bindTarget(g.Target, cs)
		if cs != sc {
			for _, n := range targetNames(g.Target) {
				b.state[cs].iterVars[n.ID] = true
			}
		}
	}
	for i, g := range c.Generators {
		if i > 0 {
			b.iterDepth++
			b.collectExpr(g.Iter, cs)
			b.iterDepth--
		}
		b.collectExprs(g.Ifs, cs)
	}
	b.collectExpr(c.Elt, cs)
	b.collectExpr(c.Value, cs)
	b.iterDepth = depth
}

// targetNames returns the names bound by an assignment target.
func targetNames(e ast.Expr) []*ast.Name {
	var names []*ast.Name
	var visit func(ast.Expr)
	visit = func(e ast.Expr) {
		switch t := e.(type) {
		case *ast.Name:
			names = append(names, t)
		case *ast.Tuple:
			for _, elt := range t.Elts {
				visit(elt)
			}
		case *ast.List:
			for _, elt := range t.Elts {
				visit(elt)
			}
		case *ast.Starred:
			visit(t.Value)
		}
	}
	visit(e)
	return names
}

// collectNamedExpr binds an assignment expression's target.  Inside a
// comprehension the target belongs to the nearest enclosing scope that is
// not a comprehension.
func (b *Binder) collectNamedExpr(ne *ast.NamedExpr, sc ScopeID) {
	n := ne.Target
	b.enclosing[n] = sc
	if target, ok := b.namedExprScope(n, sc); ok {
		b.define(target, n.ID, n, true)
	}
	b.ref(sc, n, AccessWrite)
	b.collectExpr(ne.Value, sc)
}

func (b *Binder) namedExprScope(n *ast.Name, sc ScopeID) (ScopeID, bool) {
	if b.iterDepth > 0 {
		b.errorf(CodeNamedExprIterable, n, "assignment expression cannot be used in a comprehension iterable expression")
		return NoScope, false
	}
	target := sc
	for b.scope(target).Kind == ScopeComprehension {
		if b.state[target].iterVars[n.ID] {
			b.errorf(CodeNamedExprIterVar, n, "assignment expression cannot rebind comprehension iteration variable '%s'", n.ID)
			return NoScope, false
		}
		target = b.scope(target).Parent
	}
	if target != sc && b.scope(target).Kind == ScopeClass {
		b.errorf(CodeNamedExprClass, n, "assignment expression within a comprehension cannot be used in a class body")
		return NoScope, false
	}
	return target, true
}
