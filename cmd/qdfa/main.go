// Command qdfa builds counted-repetition automata and dumps the DFA that
// the canonicalizer and scheduler produce for them.
package main

func main() {
	execute()
}
