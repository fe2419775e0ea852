package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/barsdeveloper/goduck"
)

func main() {
	ctx := context.Background()

	bridge, err := goduck.NewBridge(goduck.BridgeOptions{})
	if err != nil {
		panic(err)
	}
	defer bridge.Close(time.Second)

	cache := goduck.NewInstanceCache(goduck.NewMemoryEngine(), nil)
	defer cache.Close()

	opts, err := goduck.ParseDSN("duckdb::memory:")
	if err != nil {
		panic(err)
	}
	conn, err := goduck.Establish(cache, opts)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	for _, query := range []string{
		"CREATE TABLE users (id INT, name TEXT)",
		"INSERT INTO users VALUES (1, 'Admin'), (2, NULL)",
	} {
		s, err := bridge.Execute(ctx, conn, goduck.Request{SQL: query, Cardinality: goduck.None})
		if err != nil {
			panic(err)
		}
		if _, err := s.Collect(ctx); err != nil {
			panic(err)
		}
		s.Close()
	}

	s, err := bridge.Execute(ctx, conn, goduck.Request{SQL: "SELECT id, name FROM users", Cardinality: goduck.Many})
	if err != nil {
		panic(err)
	}
	defer s.Close()

	columns, err := s.Columns(ctx)
	if err != nil {
		panic(err)
	}
	for _, col := range columns {
		fmt.Printf("| %s ", col.Name)
	}
	fmt.Println("|")

	for i := 0; i < 20; i++ {
		fmt.Printf("=")
	}
	fmt.Println()

	for {
		msg, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}

		fmt.Printf("|")
		for _, col := range msg.Row {
			fmt.Printf(" %s | ", col.Field)
		}
		fmt.Println()
	}
}
