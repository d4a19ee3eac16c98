package main

import "github.com/amirhoseinsh/youtube-highlighter/internal/cli"

func main() {
	cli.Main()
}
