package main

import "github.com/KaramelBytes/rankboard/cmd"

func main() {
	cmd.Execute()
}
