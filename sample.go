package netsynth

// pairs returns the sampled (source, destination) device index pairs for a
// topology of n devices: source i < min(Sources, n) is paired with every j in
// (i, min(i+Span+1, n)), all in topology order
func (sp SamplePolicy) pairs(n int) [][2]int {
	sampled := [][2]int{}
	for i := 0; i < min(sp.Sources, n); i++ {
		for j := i + 1; j < min(i+sp.Span+1, n); j++ {
			sampled = append(sampled, [2]int{i, j})
		}
	}
	return sampled
}
