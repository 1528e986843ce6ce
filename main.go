package main

import "couples-workout-backend/cmd"

func main() {
	cmd.Run()
}
