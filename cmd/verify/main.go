package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dagsvall/dnn-lab/go-eval/internal/fixture"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: verify --fixture path/to/fixture.json")
		os.Exit(2)
	}

	os.Exit(run(*fixturePath))
}

// #endregion main

// #region run

func run(fixturePath string) int {
	fx, err := fixture.Load(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if fx.Description != "" {
		fmt.Printf("Fixture: %s\n", fx.Description)
	}

	summary, results, err := fixture.Verify(fx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Printf("%-28s  %10s  %10s  %-6s\n", "Case", "Got", "Expected", "Result")
	fmt.Printf("%-28s+-%10s+-%10s+-%-6s\n",
		"----------------------------", "----------", "----------", "------")
	for _, r := range results {
		mark := "ok"
		if !r.OK {
			mark = "FAIL"
		}
		fmt.Printf("%-28s  %10.6f  %10.6f  %-6s\n", shortID(r.CaseID), r.Got, r.Want, mark)
		if r.Reason != "" {
			fmt.Printf("  %s\n", r.Reason)
		}
	}

	fmt.Printf("\n%d cases: %d passed, %d failed\n", summary.Total, summary.Passed, summary.Failed)
	if summary.Failed > 0 {
		return 1
	}
	return 0
}

func shortID(id string) string {
	if len(id) > 28 {
		return id[:28]
	}
	return id
}

// #endregion run
