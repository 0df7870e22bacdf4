package main

import (
	"github.com/alecthomas/kong"
)

type cli struct {
	Encrypt encryptCmd `cmd:"" help:"Encrypt a file into framed, authenticated blocks."`
	Decrypt decryptCmd `cmd:"" help:"Decrypt a file produced by encrypt."`
}

func main() {
	var cli cli

	ctx := kong.Parse(&cli)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
