package main

import "github.com/Araiseimitsu/finetuning-for-chatgpt/internal/cli"

func main() {
	cli.Execute()
}
