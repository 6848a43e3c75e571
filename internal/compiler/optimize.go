package compiler

import "aurora/internal/ncs"

// optimize runs the peephole rules to a fixed point. Each pass rebuilds
// the instruction slice and remaps every jump through an old-to-new
// index table, so targets stay valid as instructions move.
func optimize(code []ncs.Instruction) []ncs.Instruction {
	for {
		next, changed := peephole(code)
		code = next
		if !changed {
			return code
		}
	}
}

// peephole makes one rewrite pass. A two-instruction window only
// rewrites when nothing jumps into its second slot; landing on the
// first is fine because the replacement has the same effect as the
// pair it stands in for.
func peephole(code []ncs.Instruction) ([]ncs.Instruction, bool) {
	targets := make([]bool, len(code)+1)
	for _, ins := range code {
		if isJump(ins.Op) {
			targets[ins.A] = true
		}
	}

	out := make([]ncs.Instruction, 0, len(code))
	oldToNew := make([]int, len(code)+1)
	changed := false

	for i := 0; i < len(code); {
		oldToNew[i] = len(out)
		ins := code[i]

		// A jump to the next instruction does nothing.
		if ins.Op == ncs.OpJmp && int(ins.A) == i+1 {
			changed = true
			i++
			continue
		}

		if i+1 < len(code) && !targets[i+1] {
			next := code[i+1]

			// Adjacent stack drops merge into one.
			if ins.Op == ncs.OpMovSP && next.Op == ncs.OpMovSP {
				oldToNew[i+1] = len(out)
				out = append(out, ncs.Instruction{Op: ncs.OpMovSP, A: ins.A + next.A})
				changed = true
				i += 2
				continue
			}

			// A constant feeding a conditional branch decides it now:
			// the branch either becomes unconditional or disappears.
			if ins.Op == ncs.OpConstI && (next.Op == ncs.OpJz || next.Op == ncs.OpJnz) {
				oldToNew[i+1] = len(out)
				taken := next.Op == ncs.OpJz && ins.A == 0 ||
					next.Op == ncs.OpJnz && ins.A != 0
				if taken {
					out = append(out, ncs.Instruction{Op: ncs.OpJmp, A: next.A})
				}
				changed = true
				i += 2
				continue
			}
		}

		out = append(out, ins)
		i++
	}
	oldToNew[len(code)] = len(out)

	if !changed {
		return code, false
	}
	for i := range out {
		if isJump(out[i].Op) {
			out[i].A = int32(oldToNew[out[i].A])
		}
	}
	return out, true
}

func isJump(op ncs.Opcode) bool {
	switch op {
	case ncs.OpJmp, ncs.OpJz, ncs.OpJnz, ncs.OpJsr, ncs.OpStoreState:
		return true
	}
	return false
}
