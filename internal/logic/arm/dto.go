package arm

// Position holds one absolute target per joint, in joint-index order.
type Position [JointCount]int

// BasePose returns the stowed arm position.
func BasePose() Position {
	return basePose
}

// clampTarget bounds a joint target and reports whether it had to be truncated.
func clampTarget(target int) (int, bool) {
	switch {
	case target < MinTarget:
		return MinTarget, true
	case target > MaxTarget:
		return MaxTarget, true
	default:
		return target, false
	}
}

func boundDelta(delta int) int {
	return max(-maxDelta, min(maxDelta, delta))
}
