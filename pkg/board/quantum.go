package board

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// This file implements spec §4.4: split, merge, measurement, joint-state
// keys, marginalization, cascading collapse, and the three flavors of
// blocker-induced entanglement construction. There is no teacher file to
// ground this on (the teacher engine has no notion of superposition); the
// coding idiom -- small pure functions, validated preconditions up front,
// (T, error) returns -- follows the rest of this package and the teacher's
// taste for explicit, documented ordering (pkg/board/movelist.go's
// SortByPriority) for the canonical-key sort below.

// --- split / merge / measurement ---

// Split removes the source entry from dist and adds two target entries at
// ratio r / 1-r. Preconditions: dist is certain at src, t1 != t2, both are
// absent from dist, and 0 < r < 1. On violation, returns IllegalMoveError
// (spec: "Fails with IllegalMove when preconditions fail").
func Split(dist Distribution, src, t1, t2 Square, r float64) (Distribution, error) {
	if !dist.IsCertainAt(src) {
		return nil, illegalMove("split source %v is not certain", src)
	}
	if t1 == t2 {
		return nil, illegalMove("split targets must be distinct")
	}
	if dist.At(t1) > massEpsilon || dist.At(t2) > massEpsilon {
		return nil, illegalMove("split targets must be empty")
	}
	if r <= 0 || r >= 1 {
		return nil, illegalMove("split ratio must be in (0,1)")
	}

	ret := dist.Clone()
	delete(ret, src)
	ret[t1] = r
	ret[t2] = 1 - r
	return ret, nil
}

// Merge sums the mass at two distinct source squares into an empty target
// square, preserving any other entries the distribution has.
func Merge(dist Distribution, s1, s2, target Square) (Distribution, error) {
	if s1 == s2 {
		return nil, illegalMove("merge sources must be distinct")
	}
	p1, p2 := dist.At(s1), dist.At(s2)
	if p1 <= massEpsilon || p2 <= massEpsilon {
		return nil, illegalMove("merge requires nonzero mass at both sources")
	}
	if dist.At(target) > massEpsilon {
		return nil, illegalMove("merge target must be empty")
	}

	ret := dist.Clone()
	delete(ret, s1)
	delete(ret, s2)
	ret[target] += p1 + p2
	return ret, nil
}

// MeasurementResult reports the outcome of sampling a piece's distribution at
// a specific square.
type MeasurementResult struct {
	ProbabilityBefore float64
	Outcome           bool
	CollapsedTo       Square
}

// Measure samples dist at question, collapsing it to a singleton. If the mass
// at question is (approximately) zero, the distribution is left unchanged
// and Outcome is false. If the mass there is (approximately) 1, Outcome is
// true without consuming randomness. Otherwise dist is sampled; Outcome
// reflects whether the draw landed on question.
func Measure(dist Distribution, question Square, src Source) (Distribution, MeasurementResult) {
	before := dist.At(question)

	if before < massEpsilon {
		return dist, MeasurementResult{ProbabilityBefore: before, Outcome: false}
	}
	if before > 1-massEpsilon {
		return NewCertain(question), MeasurementResult{ProbabilityBefore: before, Outcome: true, CollapsedTo: question}
	}

	outcome := Sample(dist, src)
	return NewCertain(outcome), MeasurementResult{ProbabilityBefore: before, Outcome: outcome == question, CollapsedTo: outcome}
}

// --- joint-state keys ---

// JointKey returns the canonical composite key "id:sq,id:sq,..." for an
// assignment, with identities sorted lexicographically (spec §4.4).
func JointKey(assign map[PieceID]Square) string {
	ids := make([]PieceID, 0, len(assign))
	for id := range assign {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return strconv.FormatInt(int64(ids[i]), 10) < strconv.FormatInt(int64(ids[j]), 10)
	})

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d:%d", id, assign[id])
	}
	return strings.Join(parts, ",")
}

// ParseJointKey is the exact inverse of JointKey.
func ParseJointKey(key string) (map[PieceID]Square, error) {
	ret := map[PieceID]Square{}
	if key == "" {
		return ret, nil
	}
	for _, part := range strings.Split(key, ",") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, invalidState("malformed joint key entry: %q", part)
		}
		id, err := strconv.ParseInt(kv[0], 10, 64)
		if err != nil {
			return nil, invalidState("malformed joint key identity: %q", kv[0])
		}
		sq, err := strconv.ParseInt(kv[1], 10, 8)
		if err != nil {
			return nil, invalidState("malformed joint key square: %q", kv[1])
		}
		ret[PieceID(id)] = Square(sq)
	}
	return ret, nil
}

// Marginalize returns the per-square marginal distribution of id within a
// joint state: the sum of joint probabilities whose composite key assigns id
// to that square (spec §4.4, invariant J2).
func Marginalize(joint map[string]float64, id PieceID) (Distribution, error) {
	ret := Distribution{}
	for key, p := range joint {
		assign, err := ParseJointKey(key)
		if err != nil {
			return nil, err
		}
		sq, ok := assign[id]
		if !ok {
			continue
		}
		ret[sq] += p
	}
	return ret, nil
}

func sumJoint(joint map[string]float64) float64 {
	var total float64
	for _, p := range joint {
		total += p
	}
	return total
}

func normalizeJoint(joint map[string]float64) (map[string]float64, error) {
	total := sumJoint(joint)
	if total < massEpsilon {
		return nil, invalidState("cannot normalize a zero-mass joint state")
	}
	ret := make(map[string]float64, len(joint))
	for k, p := range joint {
		if v := p / total; v > massEpsilon {
			ret[k] = v
		}
	}
	return ret, nil
}

func certainSquare(d Distribution) (Square, bool) {
	if len(d) != 1 {
		return NoSquare, false
	}
	for sq, p := range d {
		if p > 1-massEpsilon {
			return sq, true
		}
	}
	return NoSquare, false
}

// --- entanglement construction ---

// BlockerBranch describes one path-blocker for entanglement construction: its
// identity, its distribution, and (for the classical move case) the single
// square on the path where it counts as blocking.
type BlockerBranch struct {
	ID          PieceID
	Dist        Distribution
	BlockSquare Square // only used by BuildMoveEntanglement
}

type blockerCombo struct {
	assign map[PieceID]Square
	weight float64
}

// enumerateCombos returns the cartesian product of the given blockers'
// distributions. Bounded by the product of blocker distribution sizes,
// typically <= 8^2 (spec §5).
func enumerateCombos(blockers []BlockerBranch) []blockerCombo {
	combos := []blockerCombo{{assign: map[PieceID]Square{}, weight: 1}}
	for _, b := range blockers {
		var next []blockerCombo
		for _, c := range combos {
			for _, sq := range b.Dist.Squares() {
				p := b.Dist.At(sq)
				assign := make(map[PieceID]Square, len(c.assign)+1)
				for k, v := range c.assign {
					assign[k] = v
				}
				assign[b.ID] = sq
				next = append(next, blockerCombo{assign: assign, weight: c.weight * p})
			}
		}
		combos = next
	}
	return combos
}

func uniqueBlockers(groups ...[]BlockerBranch) []BlockerBranch {
	seen := map[PieceID]bool{}
	var ret []BlockerBranch
	for _, g := range groups {
		for _, b := range g {
			if !seen[b.ID] {
				seen[b.ID] = true
				ret = append(ret, b)
			}
		}
	}
	return ret
}

func addWeight(joint map[string]float64, assign map[PieceID]Square, w float64) {
	if w <= 0 {
		return
	}
	joint[JointKey(assign)] += w
}

func withAssign(base map[PieceID]Square, id PieceID, sq Square) map[PieceID]Square {
	ret := make(map[PieceID]Square, len(base)+1)
	for k, v := range base {
		ret[k] = v
	}
	ret[id] = sq
	return ret
}

func memberIDs(moverID PieceID, blockers []BlockerBranch) []PieceID {
	ids := make([]PieceID, 0, len(blockers)+1)
	ids = append(ids, moverID)
	for _, b := range blockers {
		ids = append(ids, b.ID)
	}
	slices.Sort(ids)
	return ids
}

// BuildMoveEntanglement builds the entanglement generated when a classical
// move/capture from source to target is obstructed by one or more
// path-blockers (spec §4.4, "classical move through superposed blocker"):
// for each combination of blocker positions, if ANY blocker sits at its
// designated BlockSquare the mover stays at source; otherwise it reaches
// target. The result is normalized to sum to 1.
func BuildMoveEntanglement(moverID PieceID, source, target Square, blockers []BlockerBranch, description string) (Entanglement, error) {
	joint := map[string]float64{}
	for _, c := range enumerateCombos(blockers) {
		blocked := false
		for _, b := range blockers {
			if c.assign[b.ID] == b.BlockSquare {
				blocked = true
				break
			}
		}
		moverSq := target
		if blocked {
			moverSq = source
		}
		addWeight(joint, withAssign(c.assign, moverID, moverSq), c.weight)
	}

	norm, err := normalizeJoint(joint)
	if err != nil {
		return Entanglement{}, err
	}
	return Entanglement{PieceIDs: memberIDs(moverID, blockers), Joint: norm, Description: description}, nil
}

// pathBlocked reports whether any blocker in the combo's assignment landed on
// one of path's squares.
func pathBlocked(path []Square, assign map[PieceID]Square, blockers []BlockerBranch) bool {
	for _, b := range blockers {
		sq := assign[b.ID]
		if slices.Contains(path, sq) {
			return true
		}
	}
	return false
}

// BuildSplitEntanglement builds the entanglement generated when a SPLIT's two
// paths are obstructed by path-blockers (spec §4.4, "SPLIT through
// blockers"). path1/path2 are the intermediate (non-endpoint) squares of each
// ray; blockers1/blockers2 are the pieces with mass anywhere on the
// respective path (a blocker may appear in both if the paths cross).
func BuildSplitEntanglement(moverID, source, t1, t2 Square, path1 []Square, blockers1 []BlockerBranch, path2 []Square, blockers2 []BlockerBranch, r float64, description string) (Entanglement, error) {
	all := uniqueBlockers(blockers1, blockers2)
	joint := map[string]float64{}

	for _, c := range enumerateCombos(all) {
		blocked1 := pathBlocked(path1, c.assign, blockers1)
		blocked2 := pathBlocked(path2, c.assign, blockers2)

		switch {
		case !blocked1 && !blocked2:
			addWeight(joint, withAssign(c.assign, moverID, t1), r*c.weight)
			addWeight(joint, withAssign(c.assign, moverID, t2), (1-r)*c.weight)
		case blocked1 && !blocked2:
			addWeight(joint, withAssign(c.assign, moverID, t2), c.weight)
		case !blocked1 && blocked2:
			addWeight(joint, withAssign(c.assign, moverID, t1), c.weight)
		default: // both blocked
			addWeight(joint, withAssign(c.assign, moverID, source), c.weight)
		}
	}

	norm, err := normalizeJoint(joint)
	if err != nil {
		return Entanglement{}, err
	}
	return Entanglement{PieceIDs: memberIDs(moverID, all), Joint: norm, Description: description}, nil
}

// BuildMergeEntanglement builds the entanglement generated when a MERGE's two
// paths are obstructed by path-blockers (spec §4.4, "MERGE through blockers
// is the dual [of split]"): where a path is clear, that branch's mass flows
// into target; where blocked, it stays at its source. Any additional mass
// the mover's distribution holds outside {s1, s2} (other, untouched by this
// merge) passes through unconstrained by the blockers, preserving J2 without
// forcing the entanglement to claim the piece's entire distribution -- see
// DESIGN.md's resolution of the corresponding Open Question.
func BuildMergeEntanglement(moverID PieceID, s1 Square, p1 float64, path1 []Square, blockers1 []BlockerBranch, s2 Square, p2 float64, path2 []Square, blockers2 []BlockerBranch, target Square, other Distribution, description string) (Entanglement, error) {
	all := uniqueBlockers(blockers1, blockers2)
	combos := enumerateCombos(all)
	joint := map[string]float64{}

	for _, c := range combos {
		blocked1 := pathBlocked(path1, c.assign, blockers1)
		blocked2 := pathBlocked(path2, c.assign, blockers2)

		branch1Sq := target
		if blocked1 {
			branch1Sq = s1
		}
		branch2Sq := target
		if blocked2 {
			branch2Sq = s2
		}

		addWeight(joint, withAssign(c.assign, moverID, branch1Sq), p1*c.weight)
		addWeight(joint, withAssign(c.assign, moverID, branch2Sq), p2*c.weight)

		for sq, q := range other {
			addWeight(joint, withAssign(c.assign, moverID, sq), q*c.weight)
		}
	}

	norm, err := normalizeJoint(joint)
	if err != nil {
		return Entanglement{}, err
	}
	return Entanglement{PieceIDs: memberIDs(moverID, all), Joint: norm, Description: description}, nil
}

// --- cascading collapse ---

// CascadeCollapse propagates the consequences of seed becoming certain
// through every entanglement it is (or becomes) a member of, per spec §4.4:
// each pass retains only joint entries consistent with a now-certain member,
// renormalizes, and re-marginalizes every member; newly-certain members are
// queued in turn. An iterative worklist is used instead of recursion to keep
// termination explicit and avoid stack growth (spec §9).
func CascadeCollapse(snap *Snapshot, seed PieceID) (*Snapshot, error) {
	cur := snap
	queue := []PieceID{seed}
	queued := map[PieceID]bool{seed: true}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		p, ok := cur.Piece(id)
		if !ok {
			continue // captured before its turn in the worklist
		}
		sq, certain := certainSquare(p.Dist)
		if !certain {
			continue
		}

		ent, has := cur.EntanglementOf(id)
		if !has {
			continue
		}

		filtered := map[string]float64{}
		for key, prob := range ent.Joint {
			assign, err := ParseJointKey(key)
			if err != nil {
				return nil, err
			}
			if assign[id] == sq {
				filtered[key] = prob
			}
		}
		if sumJoint(filtered) < massEpsilon {
			return nil, invalidState("cascading collapse: impossible outcome for piece %v at %v", id, sq)
		}
		norm, err := normalizeJoint(filtered)
		if err != nil {
			return nil, err
		}

		cur = cur.WithEntanglement(Entanglement{PieceIDs: ent.PieceIDs, Joint: norm, Description: ent.Description})

		collapsedToSingleOutcome := len(norm) <= 1
		for _, mid := range ent.PieceIDs {
			marg, err := Marginalize(norm, mid)
			if err != nil {
				return nil, err
			}

			if marg.Mass() < massEpsilon {
				// Member's marginal vanished: remove it and drop the entanglement.
				cur = cur.WithoutPiece(mid)
				continue
			}

			wasCertainBefore := false
			if existing, ok := cur.Piece(mid); ok {
				_, wasCertainBefore = certainSquare(existing.Dist)
			}

			cur, err = cur.WithDistribution(mid, marg)
			if err != nil {
				return nil, err
			}

			if _, nowCertain := certainSquare(marg); nowCertain && !wasCertainBefore && !queued[mid] {
				queue = append(queue, mid)
				queued[mid] = true
			}
		}

		if collapsedToSingleOutcome {
			cur = cur.WithoutEntanglement(id)
		}
	}

	return cur, nil
}
