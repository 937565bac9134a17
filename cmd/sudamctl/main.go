package main

import "github.com/BlueStarAcademy/sudampvp/internal/cli"

func main() {
	cli.Execute()
}
