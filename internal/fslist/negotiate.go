package fslist

import "fmt"

// Op is a constraint operator using SQLite's numeric codes.
type Op uint8

const (
	OpEQ     Op = 2
	OpGT     Op = 4
	OpLE     Op = 8
	OpLT     Op = 16
	OpGE     Op = 32
	OpMatch  Op = 64
	OpLike   Op = 65
	OpGlob   Op = 66
	OpRegexp Op = 67
	OpNE     Op = 68
	OpLimit  Op = 73
	OpOffset Op = 74
)

func (o Op) String() string {
	switch o {
	case OpEQ:
		return "="
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpLT:
		return "<"
	case OpGE:
		return ">="
	case OpMatch:
		return "MATCH"
	case OpLike:
		return "LIKE"
	case OpGlob:
		return "GLOB"
	case OpRegexp:
		return "REGEXP"
	case OpNE:
		return "<>"
	case OpLimit:
		return "LIMIT"
	case OpOffset:
		return "OFFSET"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Constraint is one filter term the planner offers to the relation.
type Constraint struct {
	Column int
	Op     Op
	Usable bool
}

// ConstraintUsage tells the planner how a constraint is consumed. ArgvIndex is
// 1-based; zero means the constraint is not passed to Filter.
type ConstraintUsage struct {
	ArgvIndex int
	Omit      bool
}

// Plan is the outcome of a successful negotiation.
type Plan struct {
	Usage         []ConstraintUsage
	IdxNum        int
	EstimatedCost float64
	EstimatedRows int64
}

const (
	// PlanIdxNum identifies the only scan strategy: list the input directory.
	PlanIdxNum = 1

	// The listing is an unindexed external scan; the estimates keep the planner
	// from picking it as the inner side of a join without an input filter.
	scanEstimatedCost = 100000.0
	scanEstimatedRows = 100000

	// UnusablePlanIdxNum marks a plan offered only so the engine keeps
	// planning. Its cost makes the engine prefer any plan that binds input.
	UnusablePlanIdxNum = 0
	unusablePlanCost   = 1e300
	unusablePlanRows   = 1 << 62
)

// Negotiate decides whether the offered constraints admit a scan. The only
// accepted plan binds one usable equality constraint on the input column to
// argument slot 1 and asks the engine not to re-check it. An input equality
// that is not yet usable yields a prohibitively expensive plan instead of an
// error, so the engine can still choose a join order that binds it.
func Negotiate(constraints []Constraint) (Plan, error) {
	usage := make([]ConstraintUsage, len(constraints))
	bound := false
	deferred := false

	for i, c := range constraints {
		if c.Op == OpLimit || c.Op == OpOffset {
			continue
		}
		if Column(c.Column) != ColumnInput {
			return Plan{}, newConstraintError("best index",
				fmt.Sprintf("constraint %s on column %s is not supported", c.Op, Column(c.Column)))
		}
		if c.Op != OpEQ {
			return Plan{}, newConstraintError("best index",
				fmt.Sprintf("input only supports =, got %s", c.Op))
		}
		if !c.Usable {
			deferred = true
			continue
		}
		if bound {
			continue
		}
		usage[i] = ConstraintUsage{ArgvIndex: 1, Omit: true}
		bound = true
	}

	if !bound && deferred {
		// The input value comes from a table not yet positioned in this join
		// order. Nothing is bound; Filter rejects the plan if it ever runs.
		return Plan{
			Usage:         usage,
			IdxNum:        UnusablePlanIdxNum,
			EstimatedCost: unusablePlanCost,
			EstimatedRows: unusablePlanRows,
		}, nil
	}
	if !bound {
		return Plan{}, newArgumentError("best index", "missing path: query must constrain input = <directory>")
	}

	return Plan{
		Usage:         usage,
		IdxNum:        PlanIdxNum,
		EstimatedCost: scanEstimatedCost,
		EstimatedRows: scanEstimatedRows,
	}, nil
}
