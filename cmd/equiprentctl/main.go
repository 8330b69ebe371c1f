package main

import "equiprent-backend/internal/cli"

func main() {
	cli.Execute()
}
