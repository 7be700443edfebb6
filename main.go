package main

import "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd"

func main() {
	cmd.Execute()
}
