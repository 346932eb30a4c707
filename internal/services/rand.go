package services

// randSource is the subset of math/rand the engine draws from. It is
// injected so tests can force deterministic rolls; *rand.Rand satisfies it.
type randSource interface {
	Float64() float64
	Intn(n int) int
}
