package main

import "github.com/georgemunganga/schoolpack-backend/internal/cmd"

func main() {
	cmd.Execute()
}
