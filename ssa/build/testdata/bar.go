package main

func bar(n int) int {
	for n > 1 {
		n /= 2
	}
	return n
}
