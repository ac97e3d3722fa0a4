package solcfixture

// Sample source paths and contract names.
const (
	TokenSource   = "contracts/Token.sol"
	LegacySource  = "contracts/legacy/Token.sol"
	TreeSource    = "contracts/Tree.sol"
	VaultFQN      = TokenSource + ":Vault"
	BaseFQN       = TokenSource + ":Base"
	TokenFQN      = TokenSource + ":Token"
	LegacyFQN     = LegacySource + ":Token"
	TreeFQN       = TreeSource + ":Tree"
	OtherFQN      = TokenSource + ":Other"
	SampleBuildID = "3f8c2e0d5b1a9c7e"
)

// Sample builds the AST shared by the package tests:
//
//	struct Point  { uint256 x; uint256 y; }
//	struct Record { uint256 a; address b; uint256[3] c; }
//	enum Kind { A, B }
//	contract Other { uint256 z; }
//	contract Base  { uint256 x; }
//	contract Vault is Base {
//	    uint256 constant K = 1;
//	    uint256 immutable I;
//	    uint256 y;
//	    Record rec;
//	    Point[5] pts;
//	    mapping(address => Point) m;
//	    mapping(address => uint256) n;
//	    Other other;
//	    uint256[] dyn;
//	    mapping(uint256 => mapping(uint256 => Point)) nested;
//	    Point[][] grid;
//	    Kind kind;
//	    uint256[SIZE] sized; // SIZE == 4
//	}
//	contract Token { uint256 supply; }              // contracts/Token.sol
//	contract Token { uint256 legacySupply; }        // contracts/legacy/Token.sol
//	contract Tree  { struct Node { uint256 v; Node[] children; } Node root; }
func Sample() *Builder {
	b := New()

	point := b.Struct("Point",
		b.Var("x", b.Elementary("uint256")),
		b.Var("y", b.Elementary("uint256")),
	)
	record := b.Struct("Record",
		b.Var("a", b.Elementary("uint256")),
		b.Var("b", b.Elementary("address")),
		b.Var("c", b.Array(b.Elementary("uint256"), 3)),
	)
	kind := b.Enum("Kind", "A", "B")
	other := b.Contract("Other", nil, b.Var("z", b.Elementary("uint256")))
	base := b.Contract("Base", nil, b.Var("x", b.Elementary("uint256")))
	vault := b.Contract("Vault", []Node{base},
		b.Constant("K", b.Elementary("uint256")),
		b.Immutable("I", b.Elementary("uint256")),
		b.Var("y", b.Elementary("uint256")),
		b.Var("rec", b.UserDefined(record)),
		b.Var("pts", b.Array(b.UserDefined(point), 5)),
		b.Var("m", b.Mapping(b.Elementary("address"), b.UserDefined(point))),
		b.Var("n", b.Mapping(b.Elementary("address"), b.Elementary("uint256"))),
		b.Var("other", b.UserDefined(other)),
		b.Function("deposit"),
		b.Var("dyn", b.Array(b.Elementary("uint256"), -1)),
		b.Var("nested", b.Mapping(b.Elementary("uint256"), b.Mapping(b.Elementary("uint256"), b.UserDefined(point)))),
		b.Var("grid", b.Array(b.Array(b.UserDefined(point), -1), -1)),
		b.Var("kind", b.UserDefined(kind)),
		b.Var("sized", b.ConstantLengthArray(b.Elementary("uint256"), "SIZE", 4)),
	)
	token := b.Contract("Token", nil, b.Var("supply", b.Elementary("uint256")))
	b.Source(TokenSource, point, record, kind, other, base, vault, token)

	legacy := b.Contract("Token", nil, b.Var("legacySupply", b.Elementary("uint256")))
	b.Source(LegacySource, legacy)

	node := b.Struct("Node")
	node["members"] = []any{
		b.Var("v", b.Elementary("uint256")),
		b.Var("children", b.Array(b.UserDefined(node), -1)),
	}
	tree := b.Contract("Tree", nil, node, b.Var("root", b.UserDefined(node)))
	b.Source(TreeSource, tree)

	return b
}
