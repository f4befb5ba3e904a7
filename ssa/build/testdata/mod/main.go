package main

import "example.com/loops/count"

func main() {
	println(count.Up(10))
}
