package main

import "rxtrack-backend/cmd"

func main() {
	cmd.Run()
}
