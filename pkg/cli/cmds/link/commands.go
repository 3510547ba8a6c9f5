package link

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sensorlink/pkg/cli/sh"
	"github.com/robotalks/sensorlink/pkg/l1/msgs"
)

var (
	// LinkStatsCmd exposes LinkStatsQuery command.
	LinkStatsCmd = ishell.Cmd{
		Name:    "link.stats",
		Aliases: []string{"ls"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.LinkStatsQuery{})
		}),
	}

	// LinkResetCmd exposes LinkReset command.
	LinkResetCmd = ishell.Cmd{
		Name:    "link.reset",
		Aliases: []string{"lr"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.LinkReset{})
		}),
	}

	// LinkTailCmd exposes FrameTailQuery command.
	LinkTailCmd = ishell.Cmd{
		Name:    "link.tail",
		Aliases: []string{"lt"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseTail(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}
)

// ParseTail builds a FrameTailQuery from command arguments.
func ParseTail(args []string) (*msgs.FrameTailQuery, error) {
	var msg msgs.FrameTailQuery
	if len(args) > 0 {
		val, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid COUNT: %v", err)
		}
		msg.Count = uint32(val)
	}
	return &msg, nil
}

func init() {
	sh.AddCmds(
		&LinkStatsCmd,
		&LinkResetCmd,
		&LinkTailCmd,
	)
}
