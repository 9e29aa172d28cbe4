package main

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/game"
	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/network"
)

// Connections speak a line protocol standing in for the game's own:
//
//	join <name> <level> [partsVersion]
//	model <name>
//	skin <name>
//	level <name>
//	reload <model>
//	quit
//
// Every line gets "ok" or "error <message>"; model packets are written to
// the same connection as they are produced.
func serveConn(g *game.Game, conn net.Conn) {
	id := g.Accept(conn)
	defer g.Leave(id)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" {
			return
		}
		if err := handle(g, id, fields); err != nil {
			logger.Debug("command failed", zap.Uint32("conn", uint32(id)), zap.Strings("line", fields), zap.Error(err))
			g.Transport().Send(id, []byte("error "+err.Error()+"\n"))
			continue
		}
		g.Transport().Send(id, []byte("ok\n"))
	}
}

func handle(g *game.Game, id network.ConnID, fields []string) error {
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "join":
		if len(args) < 2 {
			return fmt.Errorf("usage: join <name> <level> [partsVersion]")
		}
		version := 0
		if len(args) > 2 {
			v, err := strconv.Atoi(args[2])
			if err != nil || v < 1 || v > 2 {
				return fmt.Errorf("bad parts version %q", args[2])
			}
			version = v
		}
		_, err := g.Join(id, args[0], args[1], version)
		return err
	case "model":
		return g.SetModel(id, strings.Join(args, " "))
	case "skin":
		return g.SetSkin(id, strings.Join(args, " "))
	case "level":
		return g.SetLevel(id, strings.Join(args, " "))
	case "reload":
		if len(args) != 1 {
			return fmt.Errorf("usage: reload <model>")
		}
		return g.Reload(args[0])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
