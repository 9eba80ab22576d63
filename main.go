package main

import "face-profile/cmd"

func main() {
	cmd.Execute()
}
