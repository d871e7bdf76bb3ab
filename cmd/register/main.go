package main

import "dailyregister/internal/cli"

func main() {
	cli.Execute()
}
