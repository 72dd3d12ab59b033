package main

import "booking-insights/cmd"

func main() {
	cmd.Execute()
}
