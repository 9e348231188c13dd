package main

import "restaurant-match-backend/cmd"

func main() {
	cmd.Run()
}
