package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/r4phael/exception-miner/internal/analysis"
	"github.com/r4phael/exception-miner/internal/syntax"
)

func main() {
	path := "testdata/code/java/src/main/Repository.java"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	lang := syntax.LanguageForPath(path)
	if lang == syntax.LanguageUnknown {
		log.Fatalf("no grammar for %s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	parser, err := syntax.NewParser(lang)
	if err != nil {
		log.Fatal(err)
	}
	tree, err := parser.Parse(source)
	if err != nil {
		log.Fatal(err)
	}
	defer tree.Close()

	a, err := analysis.New(lang, nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== FUNCTIONS ===")
	for _, fn := range a.FunctionDefinitions(tree.Root()) {
		name, err := a.FunctionName(fn)
		if err != nil {
			name = "<" + err.Error() + ">"
		}
		fmt.Printf("  %s (lines %d-%d) try=%d nested=%v bad=%v\n",
			name, fn.StartPoint().Row+1, fn.EndPoint().Row+1,
			a.TryCount(fn), a.HasNestedTry(fn), a.IsBadExceptionHandling(fn))

		for _, clause := range a.CatchClauses(fn) {
			empty, _ := a.IsEmptyCatch(clause)
			fmt.Printf("    handler line %d types=[%s] empty=%v\n",
				clause.StartPoint().Row+1, strings.Join(a.HandlerTypes(clause), ", "), empty)
		}
	}

	metrics, skipped, err := a.FileMetrics(path, tree.Root())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n=== UNCAUGHT ===")
	for _, m := range metrics {
		if len(m.Uncaught) > 0 {
			fmt.Printf("  %s: %s\n", m.Function, strings.Join(m.Uncaught, ", "))
		}
	}
	for _, err := range skipped {
		fmt.Printf("  skipped: %v\n", err)
	}
}
