package main

import "github.com/diagnosis/luxsuv-hotel/services/reservations/internal/cli"

func main() {
	cli.Execute()
}
