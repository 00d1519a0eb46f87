// Command toolroute routes natural-language tasks to a language model,
// binding provider tools when the task needs them.
package main

func main() {
	Execute()
}
