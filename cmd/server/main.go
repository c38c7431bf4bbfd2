package main

import "lifecycle/internal/app/server"

func main() {
	server.Run()
}
