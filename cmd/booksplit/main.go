package main

import "github.com/dgallion1/booksplit/internal/cli"

func main() {
	cli.Execute()
}
