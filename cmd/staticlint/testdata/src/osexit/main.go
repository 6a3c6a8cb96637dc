package main

import (
	"os"
	sys "os"
)

type worker struct{}

func (worker) main() {
	os.Exit(3)
}

func helper() {
	os.Exit(2)
}

func main() {
	helper()
	worker{}.main()

	cleanup := func() {
		os.Exit(4)
	}
	_ = cleanup

	sys.Exit(5) // want "direct call to os.Exit is not allowed in main function of main package"
	os.Exit(1)  // want "direct call to os.Exit is not allowed in main function of main package"
}
