package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"trunkline/config"
	"trunkline/round"
)

// A minimal hot-seat driver: load a game definition, seat the named
// players and play by picking from the legal-action menu.
func main() {
	if len(os.Args) < 4 {
		log.Fatalf("usage: %s <game.yaml> <player> <player> [player...]", os.Args[0])
	}

	def, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatal(err.Error())
	}

	seats := []config.Seat{}
	for i, name := range os.Args[2:] {
		seats = append(seats, config.Seat{ID: fmt.Sprintf("p%d", i+1), Name: name})
	}

	s, err := def.Build(seats)
	if err != nil {
		log.Fatal(err.Error())
	}

	gm := round.NewGameManager(s)
	in := bufio.NewScanner(os.Stdin)
	printed := 0

	for !gm.GameOver() {
		for _, line := range s.Report.Lines()[printed:] {
			fmt.Println(line)
			printed++
		}

		menu := gm.PossibleActions().Actions()
		if len(menu) == 0 {
			log.Fatal("no legal actions; this is a bug")
		}
		for i, a := range menu {
			fmt.Printf("  [%d] %s\n", i+1, a)
		}

		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		choice, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil || choice < 1 || choice > len(menu) {
			fmt.Println("pick a number from the menu")
			continue
		}

		if err := gm.Process(menu[choice-1]); err != nil {
			fmt.Println(err.Error())
		}
	}

	for _, line := range s.Report.Lines()[printed:] {
		fmt.Println(line)
	}
}
