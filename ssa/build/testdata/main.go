package main

func main() {
	println(foo(4) + bar(3))
}
