// ast.go — statement and expression nodes produced by the parser.
//
// The node set is closed: Stmt and Expr carry unexported marker methods so
// no other package can add variants. Every node owns its children
// exclusively; the tree is built once per parse and never mutated during
// evaluation.
package nikl

// Stmt is the interface for all statement nodes.
type Stmt interface {
	stmtNode()
}

// Expr is the interface for all expression nodes.
type Expr interface {
	exprNode()
}

// --- statements ---

// LetStmt introduces a new binding in the current environment.
type LetStmt struct {
	Name  string
	Value Expr
}

// AssignStmt rebinds an existing name or writes through an index/member
// target. Target is an *IdentExpr, *IndexExpr, or *MemberExpr.
type AssignStmt struct {
	Target Expr
	Value  Expr
}

// IfStmt is a conditional with an optional else branch. Else is either a
// *BlockStmt or a nested *IfStmt (for "else if" chains), or nil.
type IfStmt struct {
	Cond Expr
	Then *BlockStmt
	Else Stmt
}

// WhileStmt re-evaluates Cond before each iteration; the body runs in a
// fresh child environment per iteration.
type WhileStmt struct {
	Cond Expr
	Body *BlockStmt
}

// FunStmt is the named-function form: sugar for `let Name = fun(...) {...}`.
type FunStmt struct {
	Name   string
	Params []string
	Body   *BlockStmt
}

// ReturnStmt escapes the nearest enclosing call; at top level it terminates
// the program with Value's result. Value may be nil (returns none).
type ReturnStmt struct {
	Value Expr
}

// ImportStmt loads another script relative to the interpreter's base path.
type ImportStmt struct {
	Path string
}

// BlockStmt is a braced statement sequence; it introduces a lexical scope at
// evaluation time.
type BlockStmt struct {
	Stmts []Stmt
}

// ExprStmt evaluates an expression for its value and side effects.
type ExprStmt struct {
	Expr Expr
}

func (*LetStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*FunStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*ImportStmt) stmtNode() {}
func (*BlockStmt) stmtNode()  {}
func (*ExprStmt) stmtNode()   {}

// --- expressions ---

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
}

// StrLit holds the raw (still escaped) text of a string literal.
type StrLit struct {
	Raw string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

// NoneLit is the literal none.
type NoneLit struct{}

// IdentExpr references a binding by name. Line/Col record where the
// reference appears in the source.
type IdentExpr struct {
	Name string
	Line int
	Col  int
}

// UnaryExpr is prefix "-" or "not".
type UnaryExpr struct {
	Op    string
	Right Expr
}

// BinaryExpr is a left-associative binary operation.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// CallExpr applies Callee to Args, evaluated left to right.
type CallExpr struct {
	Callee Expr
	Args   []Expr
}

// IndexExpr is obj[index].
type IndexExpr struct {
	Obj   Expr
	Index Expr
}

// MemberExpr is obj.name, sugar for obj["name"] on hashmaps.
type MemberExpr struct {
	Obj  Expr
	Name string
}

// ArrayLit constructs a mutable ordered sequence.
type ArrayLit struct {
	Elems []Expr
}

// TupleLit constructs a fixed-arity immutable sequence.
type TupleLit struct {
	Elems []Expr
}

// MapLit constructs a hashmap; keys are raw string texts in source order.
type MapLit struct {
	Keys   []string
	Values []Expr
}

// FunLit is an anonymous function literal; evaluation captures the defining
// environment by reference.
type FunLit struct {
	Params []string
	Body   *BlockStmt
}

func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*StrLit) exprNode()     {}
func (*BoolLit) exprNode()    {}
func (*NoneLit) exprNode()    {}
func (*IdentExpr) exprNode()  {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*IndexExpr) exprNode()  {}
func (*MemberExpr) exprNode() {}
func (*ArrayLit) exprNode()   {}
func (*TupleLit) exprNode()   {}
func (*MapLit) exprNode()     {}
func (*FunLit) exprNode()     {}
