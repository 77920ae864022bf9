// puzzlechain boots a local host with the puzzle economy programs and replays
// scripted sessions against it.
package main

func main() {
	Execute()
}
