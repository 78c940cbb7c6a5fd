// Command whai is a terminal assistant: it captures recent shell activity,
// sends it plus a free-form question to an LLM, and executes the commands
// the model proposes behind an interactive approval gate.
package main

func main() {
	Execute()
}
