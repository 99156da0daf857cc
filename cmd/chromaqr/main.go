package main

import "github.com/MeKo-Tech/chromaqr/cmd/chromaqr/cmd"

func main() {
	cmd.Execute()
}
