package main

import (
	"context"
	"strings"

	"github.com/abiosoft/ishell"
)

const prompt = "fps> "

// newShell registers every app command on an ishell shell. Each command runs
// with its own timeout derived from ctx.
func newShell(ctx context.Context, a *app) *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt(prompt)

	for _, cmd := range a.commands() {
		sh.AddCmd(&ishell.Cmd{
			Name: cmd.name,
			Help: cmd.help,
			Func: a.wrap(ctx, cmd),
		})
	}

	return sh
}

func (a *app) wrap(ctx context.Context, cmd command) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		cmdCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		var out strings.Builder
		err := cmd.run(cmdCtx, c.Args, &out)
		if out.Len() > 0 {
			c.Print(out.String())
		}
		if err != nil {
			c.Err(err)
		}
	}
}
