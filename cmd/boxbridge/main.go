package main

import (
	"os"

	"github.com/alecthomas/kong"
)

func newParser(cli *CLI, g *Global, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("boxbridge"),
		kong.Description("Lay out a UI description script and render it to markup."),
		kong.UsageOnError(),
		kong.Bind(g),
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	var cli CLI
	g := &Global{}
	parser, err := newParser(&cli, g)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
