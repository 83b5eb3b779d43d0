package cfg

import "absint/internal/program"

// CFG is a function's control-flow graph: a set of blocks reachable from
// Entry, a single designated Exit block, and the loop-header/back-edge
// facts derived from dominance.
type CFG struct {
	Entry       int
	Exit        int
	Blocks      map[int]*Block
	LoopHeaders map[int]bool
	BackEdges   map[Edge]bool
	// Order records blocks in the order they were allocated, which is also
	// a valid reverse-postorder-ish traversal seed for the fixpoint solver.
	Order []int
}

func (c *CFG) Block(id int) *Block { return c.Blocks[id] }

type loopCtx struct {
	breakTarget    int
	continueTarget int
}

type builder struct {
	cfg    *CFG
	nextID int
}

func (b *builder) newBlock() *Block {
	blk := &Block{ID: b.nextID}
	b.cfg.Blocks[blk.ID] = blk
	b.cfg.Order = append(b.cfg.Order, blk.ID)
	b.nextID++
	return blk
}

func (b *builder) addEdge(from, to int, branch Branch) {
	fromBlk := b.cfg.Blocks[from]
	fromBlk.Succs = append(fromBlk.Succs, Edge{From: from, To: to, Branch: branch})
	toBlk := b.cfg.Blocks[to]
	toBlk.Preds = append(toBlk.Preds, from)
}

// Build constructs the CFG for fn's body. Statements following a
// terminator (return, break, continue) within the same straight-line run
// are unreachable and are dropped, matching the block model's single-exit
// invariant.
func Build(fn *program.Function) *CFG {
	c := &CFG{Blocks: make(map[int]*Block), LoopHeaders: make(map[int]bool), BackEdges: make(map[Edge]bool)}
	b := &builder{cfg: c}

	entry := b.newBlock()
	entry.IsEntry = true
	c.Entry = entry.ID

	exit := b.newBlock()
	exit.IsExit = true
	c.Exit = exit.ID

	final := b.buildStmts(fn.Body, entry, nil)
	if final != nil {
		b.addEdge(final.ID, exit.ID, Unconditional)
	}

	computeDominance(c)
	return c
}

// buildStmts threads stmts onto cur, splitting into new blocks at branches
// and loops, and returns the block execution falls through to after the
// list (nil if every path through stmts terminates).
func (b *builder) buildStmts(stmts []program.Stmt, cur *Block, loops []loopCtx) *Block {
	for _, s := range stmts {
		if cur == nil {
			// Unreachable: everything after a terminator is dropped.
			return nil
		}
		switch st := s.(type) {
		case *program.Assign, *program.ExprStmt:
			cur.Stmts = append(cur.Stmts, st)

		case *program.If:
			cur.Cond = st.Cond
			thenEntry := b.newBlock()
			elseEntry := b.newBlock()
			b.addEdge(cur.ID, thenEntry.ID, OnTrue)
			b.addEdge(cur.ID, elseEntry.ID, OnFalse)

			thenExit := b.buildStmts(st.Then, thenEntry, loops)
			var elseExit *Block
			if st.Else != nil {
				elseExit = b.buildStmts(st.Else, elseEntry, loops)
			} else {
				elseExit = elseEntry
			}

			if thenExit == nil && elseExit == nil {
				return nil
			}
			join := b.newBlock()
			if thenExit != nil {
				b.addEdge(thenExit.ID, join.ID, Unconditional)
			}
			if elseExit != nil {
				b.addEdge(elseExit.ID, join.ID, Unconditional)
			}
			cur = join

		case *program.While:
			header := b.newBlock()
			header.IsLoopHeader = true
			header.Cond = st.Cond
			b.addEdge(cur.ID, header.ID, Unconditional)

			bodyEntry := b.newBlock()
			post := b.newBlock()
			b.addEdge(header.ID, bodyEntry.ID, OnTrue)
			b.addEdge(header.ID, post.ID, OnFalse)

			inner := append(loops, loopCtx{breakTarget: post.ID, continueTarget: header.ID})
			bodyExit := b.buildStmts(st.Body, bodyEntry, inner)
			if bodyExit != nil {
				b.addEdge(bodyExit.ID, header.ID, Unconditional)
			}
			cur = post

		case *program.Return:
			cur.Return = st
			b.addEdge(cur.ID, b.cfg.Exit, Unconditional)
			return nil

		case *program.Break:
			if len(loops) == 0 {
				// Malformed input (break outside a loop); treat as a dead
				// end rather than panicking.
				return nil
			}
			target := loops[len(loops)-1].breakTarget
			b.addEdge(cur.ID, target, Unconditional)
			return nil

		case *program.Continue:
			if len(loops) == 0 {
				return nil
			}
			target := loops[len(loops)-1].continueTarget
			b.addEdge(cur.ID, target, Unconditional)
			return nil
		}
	}
	return cur
}
