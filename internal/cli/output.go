package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintReply renders a server reply
func (o *Output) PrintReply(reply protocol.Message) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"tag":    string(reply.Tag),
			"fields": reply.Fields,
		})
		fmt.Println(string(data))
		return
	}
	o.printText(reply)
}

func (o *Output) printText(reply protocol.Message) {
	switch reply.Tag {
	case protocol.RspConnected:
		fmt.Printf("Connected to %s as %s\n", reply.Field(0), reply.Field(1))
	case protocol.RspDisconnected:
		fmt.Println("Disconnected")
	case protocol.RspGameEntered:
		role := "player"
		if reply.Field(1) == "true" {
			role = "owner"
		}
		fmt.Printf("Entered game %s as %s\n", reply.Field(0), role)
	case protocol.RspGameSpectating:
		fmt.Printf("Spectating; events on %s\n", reply.Field(0))
	case protocol.RspGameLeft:
		fmt.Println("Left game")
	case protocol.RspListOpened:
		o.printList("Open games", reply.Fields)
	case protocol.RspListClosed:
		o.printList("Closed games", reply.Fields)
	case protocol.RspListPlayers:
		o.printList("Players", reply.Fields)
	case protocol.RspListReady:
		o.printList("Ready players", reply.Fields)
	case protocol.RspDimensions:
		fmt.Printf("Board: %sx%s, %s ship segments per player\n",
			reply.Field(0), reply.Field(1), reply.Field(2))
	case protocol.RspOwner:
		fmt.Printf("Owner: %s\n", reply.Field(0))
	case protocol.RspTurn:
		if reply.Field(0) == "" {
			fmt.Println("Nobody is on turn")
		} else {
			fmt.Printf("On turn: %s\n", reply.Field(0))
		}
	case protocol.RspFields:
		o.printFields(reply.Fields)
	case protocol.RspReady:
		fmt.Println("Ships placed, you are ready")
	case protocol.RspShot:
		fmt.Printf("Shot %s at (%s,%s): %s\n",
			reply.Field(0), reply.Field(1), reply.Field(2), reply.Field(3))
	case protocol.RspOK:
		fmt.Println("OK")
	case protocol.RspInvalidRequest:
		fmt.Println("Rejected: invalid request")
	case protocol.RspNameExists:
		fmt.Println("Rejected: name already exists")
	case protocol.RspNameDoesntExist:
		fmt.Println("Rejected: no such name")
	case protocol.RspPermissionDenied:
		fmt.Println("Rejected: permission denied")
	case protocol.RspUsernameTaken:
		fmt.Println("Rejected: username taken")
	case protocol.RspNotConnected:
		fmt.Println("Rejected: not a member of this game")
	default:
		fmt.Printf("%s %s\n", reply.Tag, strings.Join(reply.Fields, " "))
	}
}

func (o *Output) printList(title string, items []string) {
	fmt.Printf("%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

// printFields renders the cell listing grouped per player
func (o *Output) printFields(items []string) {
	boards := make(map[model.Username][]model.Cell)
	var order []model.Username
	for _, item := range items {
		player, cell, err := protocol.ParseCell(item)
		if err != nil {
			continue
		}
		if _, seen := boards[player]; !seen {
			order = append(order, player)
		}
		boards[player] = append(boards[player], cell)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	if len(order) == 0 {
		fmt.Println("No cells visible")
		return
	}
	for _, player := range order {
		fmt.Printf("Board (%s):\n", player)
		for _, cell := range boards[player] {
			fmt.Printf("  (%d,%d) %s\n", cell.Pos.Row, cell.Pos.Col, cell.State)
		}
	}
}

// PrintEvent renders a broadcast event as a single line
func (o *Output) PrintEvent(event protocol.Message) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"event":  string(event.Tag),
			"fields": event.Fields,
		})
		fmt.Println(string(data))
		return
	}
	fmt.Printf("[%s] %s\n", event.Tag, strings.Join(event.Fields, " "))
}
