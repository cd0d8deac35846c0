package main

import (
	"github.com/beanboi7/chyp8/cmd"
)

// the window is opened on the main thread by the start command itself,
// so dump and the terminal display never touch glfw.
func main() {
	cmd.Execute()
}
