package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/worldfacts/internal/facts"
	"github.com/lawnchairsociety/worldfacts/internal/logger"
)

const helpText = `Commands:
  facts          all facts as JSON
  facts <type>   facts of one structure type as JSON
  describe       every description line, one per line
  help           this text
  quit           close the session`

// handleClient runs the command loop for one session until the client quits
// or the connection drops.
func (s *Server) handleClient(client Client) {
	logger.Info("Client connected", "remote_addr", client.RemoteAddr())
	defer logger.Info("Client disconnected", "remote_addr", client.RemoteAddr())

	for {
		line, err := client.ReadLine()
		if err != nil {
			logger.Debug("Session read ended", "remote_addr", client.RemoteAddr(), "error", err)
			return
		}

		reply, quit := s.execute(line)
		if err := client.WriteLine(reply); err != nil {
			logger.Debug("Session write failed", "remote_addr", client.RemoteAddr(), "error", err)
			return
		}
		if quit {
			return
		}
	}
}

// execute runs one command line and returns the reply. quit is true when the
// session should end after the reply is sent.
func (s *Server) execute(line string) (reply string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}

	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "facts":
		out := s.Snapshot().Facts
		if len(args) > 0 {
			out = facts.FilterType(out, args[0])
		}
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Sprintf("error: %v", err), false
		}
		return string(data), false
	case "describe":
		return strings.Join(facts.Descriptions(s.Snapshot().Facts), "\n"), false
	case "help":
		return helpText, false
	case "quit", "exit":
		return "Goodbye.", true
	default:
		return fmt.Sprintf("Unknown command: %s (type 'help')", cmd), false
	}
}
