// Package main provides the wbparse command line tool.
//
// Usage:
//
//	wbparse parse <query> [--limit N] [--max-pages N] [--format json|yaml] [--store]
//	wbparse serve
//	wbparse cookies normalize <raw.json> <out.json>
package main

func main() {
	Execute()
}
