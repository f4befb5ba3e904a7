package count

// Up counts from 0 to n.
func Up(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		c++
	}
	return c
}
