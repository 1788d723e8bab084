package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"flowshop_go/exact"
	"flowshop_go/fsp"
	"flowshop_go/tabu"
)

func main() {
	args := os.Args[1:]
	useExact := false
	if len(args) > 0 && args[0] == "-exact" {
		useExact = true
		args = args[1:]
	}
	if len(args) != 1 {
		fmt.Println("Usage: flowshop_go [-exact] <instance.json>")
		os.Exit(1)
	}

	settings, err := fsp.LoadProblemInstance(args[0])
	if err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}

	var solution *fsp.Solution
	var cmax uint
	if useExact {
		solution, cmax, err = exact.Search(settings)
	} else {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		var search *tabu.Search
		search, err = tabu.NewSearch(settings, rng)
		if err == nil {
			solution, cmax, err = search.Run()
		}
	}
	if err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}

	fmt.Print(solution.String())
	fmt.Println(cmax)
}
